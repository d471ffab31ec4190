package subscription

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// Config holds lifecycle settings read from the environment.
type Config struct {
	Gateway           string        `env:"SUBSCRIPTION_GATEWAY" envDefault:"dev"` // dev or paddle
	PlansFile         string        `env:"SUBSCRIPTION_PLANS_FILE"`
	ReconcileInterval time.Duration `env:"SUBSCRIPTION_RECONCILE_INTERVAL" envDefault:"1h"`
	ReconcileBatch    int           `env:"SUBSCRIPTION_RECONCILE_BATCH" envDefault:"100"`
	TotalCycles       int           `env:"SUBSCRIPTION_TOTAL_CYCLES" envDefault:"12"`
	DevWebhookSecret  string        `env:"SUBSCRIPTION_DEV_WEBHOOK_SECRET" envDefault:"dev-secret"`
}

// Reconciler runs ReconcileTrials on an interval.
type Reconciler struct {
	svc      Service
	interval time.Duration
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. An interval of zero disables it: Start
// then blocks until ctx is done.
func NewReconciler(svc Service, interval time.Duration, l *slog.Logger) *Reconciler {
	if svc == nil {
		panic("subscription: Service is required")
	}
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		svc:      svc,
		interval: interval,
		logger:   l.With(logger.Component("reconciler")),
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.InfoContext(ctx, "trial reconciliation disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	n, err := r.svc.ReconcileTrials(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "trial reconciliation failed",
			slog.Int("activated", n),
			logger.Error(err),
		)
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "trials activated", slog.Int("activated", n))
	}
}
