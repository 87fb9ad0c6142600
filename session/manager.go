// Package session is the token authority: it issues signed session
// tokens, verifies them, and revokes them through a blacklist.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

const (
	// TokenTTL is the fixed validity of an issued session token.
	TokenTTL = 30 * 24 * time.Hour
	// RevokedRetention is how long blacklist entries are kept before the
	// compaction job drops them.
	RevokedRetention = 24 * time.Hour
)

// Claims is the session token payload. The user id travels in a
// dedicated claim rather than the subject, matching the wire format the
// web client already depends on.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a process-wide HS256
// secret and tracks revocations in a blacklist store.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked domain.RevocationStorage
	now     func() time.Time
}

func NewManager(secret string, revoked domain.RevocationStorage) *Manager {
	return &Manager{
		secret:  []byte(secret),
		ttl:     TokenTTL,
		revoked: revoked,
		now:     time.Now,
	}
}

// Issue produces a signed token carrying the user id.
func (m *Manager) Issue(userID uuid.UUID) (string, error) {
	now := m.now()
	claims := Claims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user id.
func (m *Manager) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return uuid.Nil, domain.ErrTokenInvalid
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, domain.ErrTokenInvalid
	}
	return id, nil
}

// IsRevoked reports whether the raw token value is on the blacklist.
func (m *Manager) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	return m.revoked.IsTokenRevoked(ctx, tokenString)
}

// Revoke blacklists a token. The strict variant is implemented: the
// token must verify, and revoking twice is a conflict.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	if _, err := m.Verify(tokenString); err != nil {
		return err
	}

	revoked, err := m.revoked.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return err
	}
	if revoked {
		return domain.ErrTokenRevoked
	}

	return m.revoked.AddRevokedToken(ctx, &identity.RevokedToken{
		Token:     tokenString,
		CreatedAt: m.now(),
	})
}

// StartCompaction owns the blacklist garbage collection: a ticker that
// drops entries older than RevokedRetention until the context is
// cancelled.
func (m *Manager) StartCompaction(ctx context.Context, interval time.Duration, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := m.now().Add(-RevokedRetention)
				n, err := m.revoked.DeleteRevokedTokensBefore(ctx, cutoff)
				if err != nil {
					log.Warn("blacklist compaction failed", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("blacklist compacted", zap.Int64("removed", n))
				}
			}
		}
	}()
}
