package identity

import "time"

// RevokedToken blacklists a session token by its raw value. Entries only
// need to outlive the token's own validity; the compaction job drops
// them after 24 hours.
type RevokedToken struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
