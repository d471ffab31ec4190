package subscription

import (
	"context"
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// EmailResolver returns the billing email of a user. It is optional; the
// gateway then receives no email.
type EmailResolver func(ctx context.Context, userID string) (string, error)

// WithClock replaces time.Now. Useful for tests and for replaying webhooks.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *service) {
		s.metrics = m
	}
}

// WithTransitionHook registers a hook called after each stored transition.
// Hooks run synchronously in registration order; panics are recovered.
func WithTransitionHook(h TransitionHook) ServiceOption {
	return func(s *service) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}

// WithEmailResolver lets the service attach the user's email to gateway
// requests.
func WithEmailResolver(fn EmailResolver) ServiceOption {
	return func(s *service) {
		s.emailOf = fn
	}
}

// WithTotalCycles limits how many billing cycles the gateway charges.
// Zero, the default, bills until cancelled.
func WithTotalCycles(n int) ServiceOption {
	return func(s *service) {
		if n >= 0 {
			s.totalCycles = n
		}
	}
}

// WithReconcileBatch sets how many due trials a sweep loads per query.
func WithReconcileBatch(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.batch = n
		}
	}
}
