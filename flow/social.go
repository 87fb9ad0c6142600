package flow

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
	"github.com/verigate/verigate/session"
)

// ExternalProfile is the normalized identity a provider handshake (or an
// explicit social-login payload) produces. The email is treated as
// provider-verified.
type ExternalProfile struct {
	Email      string
	Provider   identity.Provider
	ProviderID string
	Name       string
}

type SocialManager struct {
	users    domain.UserStorage
	sessions *session.Manager
	log      *zap.Logger
}

func NewSocialManager(users domain.UserStorage, sessions *session.Manager, log *zap.Logger) *SocialManager {
	return &SocialManager{users: users, sessions: sessions, log: log}
}

// Reconcile binds the external identity to a local account, creating one
// if absent, and issues a session token. The email is the unification
// key: a user who signs up by password, Google, and GitHub converges on
// one account. Linking is idempotent and never overwrites an existing
// different provider id.
func (m *SocialManager) Reconcile(ctx context.Context, p ExternalProfile) (*identity.User, string, error) {
	if p.Email == "" || p.ProviderID == "" {
		return nil, "", domain.ErrMissingFields
	}
	if !p.Provider.Valid() {
		return nil, "", domain.ErrUnknownProvider
	}

	user, err := m.users.FindUserByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if user.LinkProvider(p.Provider, p.ProviderID) {
			if err := m.users.SaveUser(ctx, user); err != nil {
				return nil, "", err
			}
			m.log.Info("provider linked",
				zap.String("user_id", user.ID.String()),
				zap.String("provider", string(p.Provider)))
		}
	default:
		name := p.Name
		if name == "" {
			name = identity.LocalPart(p.Email)
		}
		user = &identity.User{
			ID:       uuid.New(),
			Email:    p.Email,
			Name:     name,
			Verified: true, // the provider already verified the address
		}
		user.LinkProvider(p.Provider, p.ProviderID)
		if err := m.users.CreateUser(ctx, user); err != nil {
			return nil, "", err
		}
		m.log.Info("user created from provider identity",
			zap.String("user_id", user.ID.String()),
			zap.String("provider", string(p.Provider)))
	}

	token, err := m.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
