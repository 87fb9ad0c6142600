package flow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

type ProfileManager struct {
	users  domain.UserStorage
	hasher domain.Hasher
}

func NewProfileManager(users domain.UserStorage, hasher domain.Hasher) *ProfileManager {
	return &ProfileManager{users: users, hasher: hasher}
}

// Update changes the display name and optionally the password. Empty
// fields keep their current value.
func (m *ProfileManager) Update(ctx context.Context, userID uuid.UUID, name, password string) (*identity.User, error) {
	user, err := m.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	if name != "" {
		user.Name = name
	}
	if password != "" {
		hash, err := m.hasher.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("profile: hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := m.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
