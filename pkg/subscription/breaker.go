package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// BreakerConfig configures the gateway circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `env:"GATEWAY_BREAKER_ENABLED" envDefault:"true"`
	MaxRequests      uint32        `env:"GATEWAY_BREAKER_MAX_REQUESTS" envDefault:"1"`
	Interval         time.Duration `env:"GATEWAY_BREAKER_INTERVAL" envDefault:"60s"`
	Timeout          time.Duration `env:"GATEWAY_BREAKER_TIMEOUT" envDefault:"30s"`
	FailureThreshold uint32        `env:"GATEWAY_BREAKER_FAILURES" envDefault:"5"`
}

// BreakerGateway fails fast with ErrGatewayUnavailable while the wrapped
// gateway keeps failing. It never retries. Webhook parsing is local and
// bypasses the breaker.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerGateway wraps next. Definite answers from the gateway, such as a
// rejected plan, do not count as failures; neither do cancelled contexts.
func NewBreakerGateway(next Gateway, cfg BreakerConfig, l *slog.Logger, m *Metrics) *BreakerGateway {
	if next == nil {
		panic("subscription: Gateway is required")
	}
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "billing_gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrGatewayInvalidPlan) ||
				errors.Is(err, ErrGatewaySubscriptionNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
				logger.Component("subscription"),
			)
			m.breaker(name, float64(to))
		},
	}

	return &BreakerGateway{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerGateway) CreateSubscription(ctx context.Context, req CreateRequest) (*Created, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.CreateSubscription(ctx, req)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return res.(*Created), nil
}

func (b *BreakerGateway) CancelSubscription(ctx context.Context, id string, immediate bool) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.CancelSubscription(ctx, id, immediate)
	})
	return breakerErr(err)
}

func (b *BreakerGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	return b.next.ParseWebhook(ctx, payload, signature)
}

// State exposes the breaker state for health checks.
func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrGatewayUnavailable, err)
	}
	return err
}
