package flow

import (
	"context"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
	"github.com/verigate/verigate/session"
)

type LoginManager struct {
	users    domain.UserStorage
	hasher   domain.Hasher
	sessions *session.Manager
}

func NewLoginManager(users domain.UserStorage, hasher domain.Hasher, sessions *session.Manager) *LoginManager {
	return &LoginManager{users: users, hasher: hasher, sessions: sessions}
}

// Authenticate checks the password credential and issues a session
// token. Failures are reported in a fixed order: unknown user, then
// unverified account, then wrong password.
func (m *LoginManager) Authenticate(ctx context.Context, email, password string) (*identity.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrMissingFields
	}

	user, err := m.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.ErrUserNotFound
	}
	if !user.Verified {
		return nil, "", domain.ErrNotVerified
	}
	// Provider-only accounts have no password to check against.
	if user.PasswordHash == "" || !m.hasher.Compare(password, user.PasswordHash) {
		return nil, "", domain.ErrWrongPassword
	}

	token, err := m.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
