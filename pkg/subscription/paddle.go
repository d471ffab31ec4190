package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle gateway.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
	CheckoutURL   string `env:"PADDLE_CHECKOUT_URL"`
}

// PaddleGateway implements Gateway on Paddle Billing. Paddle opens a
// subscription once the customer completes the checkout transaction, so
// CreateSubscription returns the transaction ID; the subscription.created
// webhook later carries the final subscription ID.
type PaddleGateway struct {
	client      *paddle.SDK
	verifier    *paddle.WebhookVerifier
	checkoutURL string
}

// NewPaddleGateway creates a Paddle gateway for the configured environment.
func NewPaddleGateway(cfg PaddleConfig) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, errors.Join(ErrInvalidEnvironment, fmt.Errorf("unknown environment %q", cfg.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleGateway{
		client:      client,
		verifier:    paddle.NewWebhookVerifier(cfg.WebhookSecret),
		checkoutURL: cfg.CheckoutURL,
	}, nil
}

// CreateSubscription opens a checkout transaction for the plan's recurring
// price. The trial itself is configured on the Paddle price.
func (p *PaddleGateway) CreateSubscription(ctx context.Context, req CreateRequest) (*Created, error) {
	if req.PlanID == "" {
		return nil, ErrGatewayInvalidPlan
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PlanID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id":           req.UserID,
			"billing_starts_at": req.BillingStartsAt.UTC().Format(time.RFC3339),
		},
	}
	if req.Email != "" {
		txReq.CustomData["email"] = req.Email
	}
	if req.TotalCycles > 0 {
		txReq.CustomData["total_cycles"] = strconv.Itoa(req.TotalCycles)
	}
	if p.checkoutURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(p.checkoutURL),
		}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, classifyPaddleError(fmt.Errorf("failed to create paddle transaction: %w", err), nil)
	}

	created := &Created{ID: tx.ID, Pending: true}
	if tx.Checkout != nil && tx.Checkout.URL != nil {
		created.CheckoutURL = *tx.Checkout.URL
	}
	return created, nil
}

// CancelSubscription cancels a Paddle subscription. Checkout transactions
// that never turned into a subscription have nothing to cancel, and a
// subscription Paddle already cancelled counts as cancelled.
func (p *PaddleGateway) CancelSubscription(ctx context.Context, id string, immediate bool) error {
	if id == "" || strings.HasPrefix(id, "txn_") {
		return nil
	}

	effective := paddle.EffectiveFromNextBillingPeriod
	if immediate {
		effective = paddle.EffectiveFromImmediately
	}

	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: id,
		EffectiveFrom:  paddle.PtrTo(effective),
	})
	switch {
	case err == nil, errors.Is(err, paddle.ErrSubscriptionIsCanceledActionInvalid):
		return nil
	default:
		return classifyPaddleError(fmt.Errorf("failed to cancel paddle subscription: %w", err), ErrGatewaySubscriptionNotFound)
	}
}

// ParseWebhook verifies the Paddle-Signature header and normalizes the event.
func (p *PaddleGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}
	if !valid {
		return nil, ErrWebhookVerification
	}

	return parsePaddleEvent(payload)
}

type paddleEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       paddleEventData `json:"data"`
}

type paddleEventData struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	SubscriptionID string            `json:"subscription_id"`
	TransactionID  string            `json:"transaction_id"`
	CustomData     map[string]any    `json:"custom_data"`
	Items          []paddleEventItem `json:"items"`
}

type paddleEventItem struct {
	PriceID string `json:"price_id"`
	Price   struct {
		ID string `json:"id"`
	} `json:"price"`
}

func parsePaddleEvent(payload []byte) (*WebhookEvent, error) {
	var pe paddleEvent
	if err := json.Unmarshal(payload, &pe); err != nil {
		return nil, errors.Join(ErrMalformedWebhook, err)
	}
	if pe.EventType == "" {
		return nil, errors.Join(ErrMalformedWebhook, errors.New("missing event_type"))
	}

	event := &WebhookEvent{
		Type:          mapPaddleEventType(pe.EventType),
		ProviderEvent: pe.EventType,
		OccurredAt:    pe.OccurredAt,
	}
	if uid, ok := pe.Data.CustomData["user_id"].(string); ok {
		event.UserID = uid
	}
	if len(pe.Data.Items) > 0 {
		event.PlanID = pe.Data.Items[0].Price.ID
		if event.PlanID == "" {
			event.PlanID = pe.Data.Items[0].PriceID
		}
	}

	switch {
	case strings.HasPrefix(pe.EventType, "subscription."):
		event.SubscriptionID = pe.Data.ID
		event.CheckoutID = pe.Data.TransactionID
	case strings.HasPrefix(pe.EventType, "transaction."):
		event.SubscriptionID = pe.Data.SubscriptionID
		event.CheckoutID = pe.Data.ID
	}
	return event, nil
}

func mapPaddleEventType(t string) EventType {
	switch t {
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.activated":
		return EventSubscriptionActivated
	case "subscription.canceled":
		return EventSubscriptionCancelled
	case "transaction.completed":
		return EventPaymentSucceeded
	default:
		return EventType(t)
	}
}

var (
	paddleCredentialErrors = []error{
		paddle.ErrAuthenticationMissing,
		paddle.ErrAuthenticationMalformed,
		paddle.ErrInvalidToken,
		paddle.ErrInvalidClientToken,
		paddle.ErrForbidden,
	}
	paddlePlanErrors = []error{
		paddle.ErrTransactionPriceNotFound,
		paddle.ErrTransactionProductNotFound,
		paddle.ErrTransactionPriceDifferentBillingCycle,
		paddle.ErrTransactionPriceDifferentTrialPeriod,
	}
)

// classifyPaddleError tags API errors the caller can act on. A Paddle
// not_found is tagged with notFound when it is non-nil.
func classifyPaddleError(err, notFound error) error {
	switch {
	case isAnyPaddleError(err, paddleCredentialErrors):
		return errors.Join(ErrGatewayCredentials, err)
	case isAnyPaddleError(err, paddlePlanErrors):
		return errors.Join(ErrGatewayInvalidPlan, err)
	case notFound != nil && errors.Is(err, paddle.ErrNotFound):
		return errors.Join(notFound, err)
	}
	return err
}

func isAnyPaddleError(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
