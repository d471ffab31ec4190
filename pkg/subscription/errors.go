package subscription

import "errors"

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrValidation   = errors.New("subscription: validation failed")
	ErrGateway      = errors.New("subscription: billing gateway failed")
	ErrInvalidState = errors.New("subscription: invalid state for transition")
	ErrStore        = errors.New("subscription: record store failed")
)

var (
	ErrRecordNotFound     = errors.New("subscription record not found")
	ErrPlanNotFound       = errors.New("subscription plan not found")
	ErrInvalidPlanCatalog = errors.New("invalid subscription plan catalog")
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrMissingPlanID      = errors.New("plan ID is required")
	ErrNegativeTrialDays  = errors.New("trial days must not be negative")
	ErrTrialNotEnded      = errors.New("trial has not ended yet")
	ErrCheckoutPending    = errors.New("checkout has not been completed")

	ErrGatewayCredentials          = errors.New("billing gateway rejected credentials")
	ErrGatewayInvalidPlan          = errors.New("billing gateway rejected plan")
	ErrGatewaySubscriptionNotFound = errors.New("billing gateway subscription not found")
	ErrGatewayUnavailable          = errors.New("billing gateway unavailable")
	ErrMissingAPIKey               = errors.New("billing gateway API key is required")
	ErrMissingWebhookSecret        = errors.New("billing gateway webhook secret is required")
	ErrInvalidEnvironment          = errors.New("invalid billing gateway environment")
	ErrWebhookVerification         = errors.New("webhook signature verification failed")
	ErrMalformedWebhook            = errors.New("malformed webhook payload")
	ErrNoCheckoutURL               = errors.New("no checkout URL returned from gateway")
)

// Kind is the presentation tag of an error.
type Kind string

const (
	KindNone         Kind = ""
	KindValidation   Kind = "validation_error"
	KindGateway      Kind = "gateway_error"
	KindInvalidState Kind = "invalid_state"
	KindStore        Kind = "store_error"
	KindNotFound     Kind = "not_found"
	KindUnknown      Kind = "internal_error"
)

// KindOf classifies err for display. A missing record is reported as
// KindNotFound even though it also carries ErrStore.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrGateway):
		return KindGateway
	case errors.Is(err, ErrStore):
		return KindStore
	}
	return KindUnknown
}
