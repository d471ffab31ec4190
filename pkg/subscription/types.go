package subscription

import (
	"context"
	"time"
)

// Status is the lifecycle state of a subscription record.
type Status string

const (
	StatusNone      Status = "none"
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusTrial, StatusActive, StatusCancelled:
		return true
	}
	return false
}

// IsLive reports whether the subscription can still be cancelled.
func (s Status) IsLive() bool {
	return s == StatusTrial || s == StatusActive
}

// BillingCycle is the length of one billing period.
const BillingCycle = 30

// DefaultTrialDays is used by the built-in plan table.
const DefaultTrialDays = 14

// Money is an amount in minor currency units (paise, cents).
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// EventType is a normalized billing provider event.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventPaymentSucceeded      EventType = "payment_succeeded"
)

// WebhookEvent is a verified provider event mapped to package types.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider subscription ID
	CheckoutID     string // provider checkout/transaction ID, when the event carries one
	UserID         string // from custom data attached at checkout
	PlanID         string
	OccurredAt     time.Time
}

// Transition describes an applied status change. It is passed to
// transition hooks after the record has been stored.
type Transition struct {
	UserID string
	From   Status
	To     Status
	Record Record
	At     time.Time
}

// TransitionHook is notified after a successful transition.
// Hooks must not block for long; their failures are not reported back.
type TransitionHook func(ctx context.Context, t Transition)
