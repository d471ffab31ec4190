package account

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Google sign-in errors.
var (
	ErrGoogleDisabled  = errors.New("google sign-in is not configured")
	ErrInvalidState    = errors.New("invalid oauth state")
	ErrStateNotFound   = errors.New("oauth state not found or expired")
	ErrInvalidCode     = errors.New("invalid oauth code")
	ErrUnverifiedEmail = errors.New("email not verified by provider")
	ErrNoEmail         = errors.New("no email from provider")
	ErrProviderProfile = errors.New("invalid provider profile")
)
