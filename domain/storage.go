package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verigate/verigate/identity"
)

// UserStorage is the persistence contract of the credential store. All
// operations are read-modify-write against the backing store; per-row
// atomicity is assumed, cross-operation transactions are not.
type UserStorage interface {
	FindUserByEmail(ctx context.Context, email string) (*identity.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
	FindUserByResetToken(ctx context.Context, token string) (*identity.User, error)
	CreateUser(ctx context.Context, u *identity.User) error
	SaveUser(ctx context.Context, u *identity.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// RevocationStorage records session tokens invalidated before their
// natural expiry.
type RevocationStorage interface {
	AddRevokedToken(ctx context.Context, t *identity.RevokedToken) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
	// DeleteRevokedTokensBefore drops entries created before the cutoff
	// and returns how many were removed. Stores with native key expiry
	// may implement this as a no-op.
	DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Storage bundles everything the service persists.
type Storage interface {
	UserStorage
	RevocationStorage
}

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}

// Mailer delivers one-time secrets to the account's email address. Only
// the capability is consumed here; transport lives at the edge.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendResetToken(ctx context.Context, email, token string) error
}
