package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store     Store
	transport Transport
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

func WithTransport(t Transport) Option {
	return func(m *Manager) {
		if t != nil {
			m.transport = t
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a manager. The default transport accepts a bearer header or
// the "session" cookie. It panics if store is nil.
func New(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("session: store is required")
	}

	cfg := DefaultConfig()
	m := &Manager{
		store:     store,
		transport: NewCompositeTransport(NewHeaderTransport(), NewCookieTransport(cfg.CookieName, cfg.SecureCookies)),
		ttl:       cfg.TTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewFromConfig creates a manager using cfg's cookie and lifetime settings.
func NewFromConfig(cfg Config, store Store, opts ...Option) *Manager {
	base := []Option{
		WithTTL(cfg.TTL),
		WithTransport(NewCompositeTransport(
			NewHeaderTransport(),
			NewCookieTransport(cfg.CookieName, cfg.SecureCookies),
		)),
	}
	return New(store, append(base, opts...)...)
}

// Authenticate starts a session for userID and sends its token to the client.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, userID string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	if err := m.transport.SetToken(w, token, m.ttl); err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, err
	}
	return sess, nil
}

// Get resolves the request's session.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, token)
}

// Destroy revokes the request's session and clears the client token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var errs []error
	if token, err := m.transport.GetToken(r); err == nil {
		errs = append(errs, m.store.Delete(ctx, token))
	}
	errs = append(errs, m.transport.ClearToken(w))
	return errors.Join(errs...)
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
