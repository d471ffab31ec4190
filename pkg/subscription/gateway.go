package subscription

import (
	"context"
	"time"
)

// Gateway is the billing provider the lifecycle talks to.
// Implementations classify failures with ErrGatewayCredentials,
// ErrGatewayInvalidPlan or ErrGatewaySubscriptionNotFound where they can; the service tags every gateway
// failure with ErrGateway.
type Gateway interface {
	// CreateSubscription starts a recurring subscription whose first charge
	// happens at BillingStartsAt.
	CreateSubscription(ctx context.Context, req CreateRequest) (*Created, error)

	// CancelSubscription stops the subscription, immediately or at the end
	// of the current cycle.
	CancelSubscription(ctx context.Context, id string, immediate bool) error

	// ParseWebhook verifies the signature of a provider notification and
	// maps it to a WebhookEvent.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CreateRequest carries what the gateway needs to open a subscription.
type CreateRequest struct {
	PlanID          string // gateway price ID
	UserID          string
	Email           string
	BillingStartsAt time.Time
	TotalCycles     int // 0 means until cancelled
}

// Created is the gateway's answer to CreateRequest.
type Created struct {
	ID          string // external subscription (or checkout) ID
	CheckoutURL string // where the user completes payment details, if any

	// Pending is set when ID names a checkout the user has not completed.
	// The subscription ID arrives later with EventSubscriptionCreated.
	Pending bool
}
