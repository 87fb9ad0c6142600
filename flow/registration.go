// Package flow implements the account flows: registration, login,
// profile updates, password recovery, and social identity
// reconciliation.
package flow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
	"github.com/verigate/verigate/otc"
)

type RegistrationManager struct {
	users  domain.UserStorage
	codes  *otc.Engine
	mailer domain.Mailer
	hasher domain.Hasher
	log    *zap.Logger
}

func NewRegistrationManager(users domain.UserStorage, codes *otc.Engine, mailer domain.Mailer, hasher domain.Hasher, log *zap.Logger) *RegistrationManager {
	return &RegistrationManager{users: users, codes: codes, mailer: mailer, hasher: hasher, log: log}
}

// Register creates an unverified account and sends the verification
// code. If the email cannot be sent, the just-created user is deleted
// again so no unverifiable account is left behind.
func (m *RegistrationManager) Register(ctx context.Context, email, password, name string) (*identity.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, domain.ErrMissingFields
	}

	if _, err := m.users.FindUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("registration: hash password: %w", err)
	}

	user := &identity.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	code, err := m.codes.IssueVerificationCode(ctx, user)
	if err != nil {
		// Same rollback as the email branch: without an open window
		// the account could never verify.
		if delErr := m.users.DeleteUser(ctx, user.ID); delErr != nil {
			m.log.Error("rollback after code issue failure failed",
				zap.String("email", user.Email), zap.Error(delErr))
		}
		return nil, err
	}

	if err := m.mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		// Compensating rollback: an account that can never verify is
		// worse than no account.
		if delErr := m.users.DeleteUser(ctx, user.ID); delErr != nil {
			m.log.Error("rollback after email failure failed",
				zap.String("email", user.Email), zap.Error(delErr))
		}
		m.log.Warn("verification email failed, registration rolled back",
			zap.String("email", user.Email), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	m.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}
