package session

import (
	"context"

	"github.com/dmitrymomot/trialbill/pkg/account"
)

// Store defines session persistence. Get returns ErrSessionNotFound for
// unknown or expired tokens.
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// StateStore is a session store that also keeps OAuth state.
type StateStore interface {
	Store
	account.StateStore
}
