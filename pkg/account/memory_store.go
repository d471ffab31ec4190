package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store and StateStore for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	states map[string]time.Time
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]User),
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email || (user.GoogleID != "" && u.GoogleID == user.GoogleID) {
			return ErrEmailTaken
		}
	}
	m.users[user.ID] = clone(*user)
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u = clone(u)
	return &u, nil
}

func (m *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *MemoryStore) GetByGoogleID(_ context.Context, googleID string) (*User, error) {
	if googleID == "" {
		return nil, ErrUserNotFound
	}
	return m.find(func(u User) bool { return u.GoogleID == googleID })
}

func (m *MemoryStore) StoreState(_ context.Context, state string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = expiresAt
	return nil
}

func (m *MemoryStore) ConsumeState(_ context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.states[state]
	if !ok {
		return ErrStateNotFound
	}
	delete(m.states, state)
	if !m.now().Before(exp) {
		return ErrStateNotFound
	}
	return nil
}

func (m *MemoryStore) find(match func(User) bool) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			u = clone(u)
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func clone(u User) User {
	if u.PasswordHash != nil {
		u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	}
	return u
}

var (
	_ Store      = (*MemoryStore)(nil)
	_ StateStore = (*MemoryStore)(nil)
)
