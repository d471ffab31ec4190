package account

import (
	"context"
	"strings"
	"time"
)

// User is an application account. The subscription record lives in the
// same stored document but is owned by the subscription package.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

// Store persists users. Lookups return ErrUserNotFound when nothing matches;
// Create returns ErrEmailTaken when the email or Google id is already used.
type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
}

// StateStore keeps one-time OAuth state tokens.
type StateStore interface {
	StoreState(ctx context.Context, state string, expiresAt time.Time) error
	// ConsumeState atomically checks and removes the state.
	// Returns ErrStateNotFound if it is missing, expired or already consumed.
	ConsumeState(ctx context.Context, state string) error
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
