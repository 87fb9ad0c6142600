package persistence

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// DialectorOpener is an alias for a function that returns a
// gorm.Dialector for a given DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	openers    = make(map[string]DialectorOpener)
)

// Register adds a database driver to the registry.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[name] = opener
}

// NewStorage opens the database named by dbType, runs migrations, and
// returns the repository.
func NewStorage(dbType, dsn string, cfg *gorm.Config) (*Repository, error) {
	registryMu.RLock()
	opener, ok := openers[dbType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("persistence: unknown database type %q", dbType)
	}

	if cfg == nil {
		cfg = &gorm.Config{}
	}
	// Unique violations surface as gorm.ErrDuplicatedKey so the
	// repository can translate them.
	cfg.TranslateError = true

	db, err := gorm.Open(opener(dsn), cfg)
	if err != nil {
		return nil, err
	}

	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return nil, err
	}
	return repo, nil
}
