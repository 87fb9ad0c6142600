package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

type mockStorage struct {
	mu    sync.Mutex
	users map[string]*identity.User // keyed by email
}

func newMockStorage() *mockStorage {
	return &mockStorage{users: make(map[string]*identity.User)}
}

func (m *mockStorage) FindUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockStorage) FindUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockStorage) FindUserByResetToken(ctx context.Context, token string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Reset != nil && u.Reset.Token == token {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockStorage) CreateUser(ctx context.Context, u *identity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	m.users[u.Email] = u
	return nil
}

func (m *mockStorage) SaveUser(ctx context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Email] = u
	return nil
}

func (m *mockStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, u := range m.users {
		if u.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return nil
}

func (m *mockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// flakySaveStorage fails the next failSaves calls to SaveUser.
type flakySaveStorage struct {
	*mockStorage
	failSaves int
}

func (s *flakySaveStorage) SaveUser(ctx context.Context, u *identity.User) error {
	if s.failSaves > 0 {
		s.failSaves--
		return errors.New("storage unavailable")
	}
	return s.mockStorage.SaveUser(ctx, u)
}

type mockMailer struct {
	codes  map[string]string // email -> last verification code
	tokens map[string]string // email -> last reset token
	fail   bool
}

func newMockMailer() *mockMailer {
	return &mockMailer{codes: make(map[string]string), tokens: make(map[string]string)}
}

func (m *mockMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.codes[email] = code
	return nil
}

func (m *mockMailer) SendResetToken(ctx context.Context, email, token string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.tokens[email] = token
	return nil
}

type memRevocations struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{tokens: make(map[string]bool)}
}

func (m *memRevocations) AddRevokedToken(ctx context.Context, t *identity.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[t.Token] {
		return domain.ErrTokenRevoked
	}
	m.tokens[t.Token] = true
	return nil
}

func (m *memRevocations) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], nil
}

func (m *memRevocations) DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
