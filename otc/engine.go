// Package otc issues and validates the time-boxed one-time secrets used
// by the email-verification and password-reset flows.
package otc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

const (
	// VerificationTTL bounds the email-verification window.
	VerificationTTL = 10 * time.Minute
	// ResetTTL bounds the password-reset window.
	ResetTTL = time.Hour

	resetTokenBytes = 32
)

// Engine produces and consumes one-time codes against the credential
// store. Re-issuing before expiry overwrites the open window; there is
// no multi-code history.
type Engine struct {
	users domain.UserStorage
	now   func() time.Time
}

func NewEngine(users domain.UserStorage) *Engine {
	return &Engine{users: users, now: time.Now}
}

// IssueVerificationCode opens a 10-minute verification window on the
// user and persists it. The caller is responsible for delivering the
// returned code by email.
func (e *Engine) IssueVerificationCode(ctx context.Context, u *identity.User) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("otc: generate code: %w", err)
	}

	u.Verification = &identity.OneTimeCode{
		Code:      code,
		ExpiresAt: e.now().Add(VerificationTTL),
	}
	if err := e.users.SaveUser(ctx, u); err != nil {
		return "", err
	}
	return code, nil
}

// IssueResetToken opens a 60-minute reset window on the user and
// persists it.
func (e *Engine) IssueResetToken(ctx context.Context, u *identity.User) (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("otc: generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	u.Reset = &identity.ResetToken{
		Token:     token,
		ExpiresAt: e.now().Add(ResetTTL),
	}
	if err := e.users.SaveUser(ctx, u); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeVerificationCode marks the user verified when the code matches
// and the window is still open. The verified flag and the cleared window
// land in the same persisted update, so an accepted code cannot be
// accepted twice.
func (e *Engine) ConsumeVerificationCode(ctx context.Context, email, code string) (*identity.User, error) {
	u, err := e.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrCodeInvalid
	}
	if u.Verification == nil || u.Verification.Code != code || u.Verification.Expired(e.now()) {
		return nil, domain.ErrCodeInvalid
	}

	u.Verified = true
	u.Verification = nil
	if err := e.users.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ConsumeResetToken resolves the token to its user when the window is
// still open. It deliberately does not clear the window: the caller
// clears it only after the new password has been hashed and saved, so a
// failed downstream step does not burn the token.
func (e *Engine) ConsumeResetToken(ctx context.Context, token string) (*identity.User, error) {
	u, err := e.users.FindUserByResetToken(ctx, token)
	if err != nil {
		return nil, domain.ErrResetTokenInvalid
	}
	if u.Reset == nil || u.Reset.Token != token || u.Reset.Expired(e.now()) {
		return nil, domain.ErrResetTokenInvalid
	}
	return u, nil
}

// generateCode draws a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
