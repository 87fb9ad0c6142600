package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider names an external identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// OneTimeCode is an open email-verification window. The code and its
// expiry always travel together: the pair is either fully present or
// fully absent on the user row.
type OneTimeCode struct {
	Code      string    `gorm:"column:code" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"-"`
}

func (c *OneTimeCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// ResetToken is an open password-reset window.
type ResetToken struct {
	Token     string    `gorm:"column:token" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"-"`
}

func (t *ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// User is the persisted account record. A user always carries at least
// one authentication method: a password hash or a linked provider id.
type User struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`

	GoogleID string `gorm:"index" json:"-"`
	GitHubID string `gorm:"index" json:"-"`

	Verification *OneTimeCode `gorm:"embedded;embeddedPrefix:verification_" json:"-"`
	Reset        *ResetToken  `gorm:"embedded;embeddedPrefix:reset_" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

var ErrNoAuthMethod = errors.New("identity: user needs a password or a linked provider")

// Validate enforces the construction invariants.
func (u *User) Validate() error {
	if u.PasswordHash == "" && u.GoogleID == "" && u.GitHubID == "" {
		return ErrNoAuthMethod
	}
	return nil
}

// ProviderID returns the linked id for the given provider, or "".
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderGitHub:
		return u.GitHubID
	}
	return ""
}

// LinkProvider sets the provider id if it is not already set and reports
// whether the record changed. An existing different id is kept as-is.
func (u *User) LinkProvider(p Provider, id string) bool {
	if u.ProviderID(p) != "" {
		return false
	}
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderGitHub:
		u.GitHubID = id
	default:
		return false
	}
	return true
}

// Profile is the outward-facing projection of a user. Password hashes
// and open code/token windows never leave the process.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Verified bool      `json:"verified"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified}
}

// LocalPart extracts the display-name default for provider signups that
// arrive without a name.
func LocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
