package session

import "errors"

var (
	// ErrSessionNotFound indicates no live session matches the token.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrInvalidSession indicates a malformed session was passed to a store.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")
)
