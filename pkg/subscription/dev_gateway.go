package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// DevGateway is a local Gateway that accepts every plan and logs its calls.
// Webhooks are JSON documents signed with a hex HMAC-SHA256 of the body.
type DevGateway struct {
	secret []byte
	logger *slog.Logger

	mu        sync.Mutex
	cancelled map[string]bool
}

// DevWebhook is the payload DevGateway.ParseWebhook accepts.
type DevWebhook struct {
	Type           EventType `json:"type"`
	SubscriptionID string    `json:"subscription_id"`
	CheckoutID     string    `json:"checkout_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	PlanID         string    `json:"plan_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewDevGateway creates a dev gateway. A nil logger discards output.
func NewDevGateway(webhookSecret string, l *slog.Logger) *DevGateway {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DevGateway{
		secret:    []byte(webhookSecret),
		logger:    l.With(logger.Component("dev_gateway")),
		cancelled: make(map[string]bool),
	}
}

func (g *DevGateway) CreateSubscription(ctx context.Context, req CreateRequest) (*Created, error) {
	if req.PlanID == "" {
		return nil, ErrGatewayInvalidPlan
	}
	id := "sub_dev_" + uuid.NewString()
	g.logger.InfoContext(ctx, "subscription created",
		logger.UserID(req.UserID),
		slog.String("plan_id", req.PlanID),
		slog.String("external_id", id),
		slog.Time("billing_starts_at", req.BillingStartsAt),
	)
	return &Created{ID: id}, nil
}

func (g *DevGateway) CancelSubscription(ctx context.Context, id string, immediate bool) error {
	g.mu.Lock()
	g.cancelled[id] = true
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "subscription cancelled",
		slog.String("external_id", id),
		slog.Bool("immediate", immediate),
	)
	return nil
}

// Cancelled reports whether CancelSubscription was called for id.
func (g *DevGateway) Cancelled(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled[id]
}

func (g *DevGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	if !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return nil, ErrWebhookVerification
	}

	var w DevWebhook
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, errors.Join(ErrMalformedWebhook, err)
	}
	if w.Type == "" {
		return nil, errors.Join(ErrMalformedWebhook, errors.New("missing type"))
	}

	return &WebhookEvent{
		Type:           w.Type,
		ProviderEvent:  string(w.Type),
		SubscriptionID: w.SubscriptionID,
		CheckoutID:     w.CheckoutID,
		UserID:         w.UserID,
		PlanID:         w.PlanID,
		OccurredAt:     w.OccurredAt,
	}, nil
}

// Sign returns the signature ParseWebhook expects for payload.
func (g *DevGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
