// Package persistence implements the storage contracts on gorm, with
// sqlite, postgres and mysql drivers behind a registry.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&identity.User{},
		&identity.RevokedToken{},
	)
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) FindUserByResetToken(ctx context.Context, token string) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).First(&u, "reset_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *identity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) SaveUser(ctx context.Context, u *identity.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return err
	}

	// Save writes zero values, not NULL, for a nil embedded sub-record.
	// Null the columns explicitly so a cleared window reloads as nil.
	cols := map[string]interface{}{}
	if u.Verification == nil {
		cols["verification_code"] = nil
		cols["verification_expires_at"] = nil
	}
	if u.Reset == nil {
		cols["reset_token"] = nil
		cols["reset_expires_at"] = nil
	}
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&identity.User{}).
		Where("id = ?", u.ID).Updates(cols).Error
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&identity.User{}, "id = ?", id).Error
}

func (r *Repository) AddRevokedToken(ctx context.Context, t *identity.RevokedToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrTokenRevoked
		}
		return err
	}
	return nil
}

func (r *Repository) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.RevokedToken{}).
		Where("token = ?", token).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Delete(&identity.RevokedToken{}, "created_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
