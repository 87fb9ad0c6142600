package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

type memRevocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newMemRevocations() *memRevocations {
	return &memRevocations{tokens: make(map[string]time.Time)}
}

func (m *memRevocations) AddRevokedToken(ctx context.Context, t *identity.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.Token]; ok {
		return domain.ErrTokenRevoked
	}
	m.tokens[t.Token] = t.CreatedAt
	return nil
}

func (m *memRevocations) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok, nil
}

func (m *memRevocations) DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, created := range m.tokens {
		if created.Before(cutoff) {
			delete(m.tokens, token)
			n++
		}
	}
	return n, nil
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", newMemRevocations())
	userID := uuid.New()

	token, err := m.Issue(userID)
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", newMemRevocations())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid, "token %q", token)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", newMemRevocations())
	verifier := NewManager("secret-two", newMemRevocations())

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", newMemRevocations())

	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, err := m.Issue(uuid.New())
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewManager("test-secret", newMemRevocations())

	token, err := m.Issue(uuid.New())
	require.NoError(t, err)

	revoked, err := m.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, token))

	revoked, err = m.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked, "revocation is permanent for the token's lifetime")

	// Strict variant: revoking twice is a conflict, revoking garbage is
	// a verification failure.
	assert.ErrorIs(t, m.Revoke(ctx, token), domain.ErrTokenRevoked)
	assert.ErrorIs(t, m.Revoke(ctx, "junk"), domain.ErrTokenInvalid)
}

func TestCompactionDropsOldEntries(t *testing.T) {
	ctx := context.Background()
	store := newMemRevocations()
	m := NewManager("test-secret", store)

	old, err := m.Issue(uuid.New())
	require.NoError(t, err)
	fresh, err := m.Issue(uuid.New())
	require.NoError(t, err)

	now := time.Now()
	m.now = func() time.Time { return now.Add(-RevokedRetention - time.Hour) }
	require.NoError(t, m.Revoke(ctx, old))
	m.now = func() time.Time { return now }
	require.NoError(t, m.Revoke(ctx, fresh))

	n, err := store.DeleteRevokedTokensBefore(ctx, now.Add(-RevokedRetention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, err := m.IsRevoked(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, revoked)
}
