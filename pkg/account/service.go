package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/validator"
)

// Service is the account API used by the HTTP layer.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*User, error)
	// Authenticate returns ErrInvalidCredentials for any mismatch so callers
	// cannot tell unknown emails from wrong passwords.
	Authenticate(ctx context.Context, email, password string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)

	GoogleAuthURL(ctx context.Context) (string, error)
	// GoogleCallback completes Google sign-in, creating the user on first use.
	GoogleCallback(ctx context.Context, code, state string) (*User, error)
}

type service struct {
	store       Store
	bcryptCost  int
	logger      *slog.Logger
	now         func() time.Time
	afterCreate []func(context.Context, *User) error
	google      *googleProvider
	states      StateStore
}

// Option configures the service.
type Option func(*service)

func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *service) {
		s.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAfterCreate registers a hook that runs after a user is created.
func WithAfterCreate(fn func(context.Context, *User) error) Option {
	return func(s *service) {
		if fn != nil {
			s.afterCreate = append(s.afterCreate, fn)
		}
	}
}

// WithGoogleOAuth enables Google sign-in.
func WithGoogleOAuth(cfg GoogleConfig, states StateStore) Option {
	return func(s *service) {
		s.google = newGoogleProvider(cfg)
		s.states = states
	}
}

// NewService creates an account service. It panics if store is nil.
func NewService(store Store, opts ...Option) Service {
	if store == nil {
		panic("account: store is required")
	}

	s := &service{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.google != nil && s.states == nil {
		panic("account: google sign-in requires a state store")
	}

	return s
}

func (s *service) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("name", name),
		validator.MaxLen("name", name, 100),
		validator.ValidEmail("email", email),
		validator.MinLen("password", password, 8),
		validator.MaxLen("password", password, 72),
		validator.NotCommonPassword("password", password),
	); err != nil {
		return nil, err
	}

	_, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		logger.UserID(user.ID),
		logger.Component("account"),
	)
	s.runAfterCreate(ctx, user)

	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *service) Get(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	return s.store.GetByID(ctx, id)
}

func (s *service) runAfterCreate(ctx context.Context, user *User) {
	for _, fn := range s.afterCreate {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorContext(ctx, "afterCreate hook panicked",
						logger.UserID(user.ID),
						slog.Any("panic", r),
						logger.Component("account"),
					)
				}
			}()

			hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := fn(hookCtx, user); err != nil {
				s.logger.ErrorContext(ctx, "afterCreate hook failed",
					logger.UserID(user.ID),
					logger.Error(err),
					logger.Component("account"),
				)
			}
		}()
	}
}
