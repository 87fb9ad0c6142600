package flow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/otc"
)

type RecoveryManager struct {
	users  domain.UserStorage
	codes  *otc.Engine
	mailer domain.Mailer
	hasher domain.Hasher
	log    *zap.Logger
}

func NewRecoveryManager(users domain.UserStorage, codes *otc.Engine, mailer domain.Mailer, hasher domain.Hasher, log *zap.Logger) *RecoveryManager {
	return &RecoveryManager{users: users, codes: codes, mailer: mailer, hasher: hasher, log: log}
}

// Initiate opens a reset window for the account and mails the token.
// Re-initiating before the previous token expires overwrites it.
func (m *RecoveryManager) Initiate(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingFields
	}

	user, err := m.users.FindUserByEmail(ctx, email)
	if err != nil {
		return domain.ErrUserNotFound
	}

	token, err := m.codes.IssueResetToken(ctx, user)
	if err != nil {
		return err
	}

	if err := m.mailer.SendResetToken(ctx, user.Email, token); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	m.log.Info("reset token issued", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes the token and stores the new password. The
// reset window is cleared in the same save as the new hash, and only
// after hashing succeeded, so a failed attempt does not burn the token.
func (m *RecoveryManager) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return domain.ErrMissingFields
	}

	user, err := m.codes.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("recovery: hash password: %w", err)
	}

	user.PasswordHash = hash
	user.Reset = nil
	if err := m.users.SaveUser(ctx, user); err != nil {
		return err
	}

	m.log.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}
