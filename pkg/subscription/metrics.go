package subscription

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records lifecycle counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	transitions     *prometheus.CounterVec
	gatewayCalls    *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	reconciled      prometheus.Counter
	breakerState    *prometheus.GaugeVec
	reconcileErrors prometheus.Counter
}

// NewMetrics registers the subscription collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Applied subscription status transitions",
		}, []string{
			"from",
			"to",
			"source", // api, webhook, reconciler
		}),
		gatewayCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_gateway_requests_total",
			Help: "Billing gateway requests by operation and result",
		}, []string{
			"operation", // create, cancel, webhook
			"result",    // ok, error
		}),
		webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_webhooks_total",
			Help: "Billing webhooks received by normalized event type",
		}, []string{
			"event",
			"result", // applied, ignored, error
		}),
		reconciled: f.NewCounter(prometheus.CounterOpts{
			Name: "subscription_trials_activated_total",
			Help: "Trials activated by the reconciler",
		}),
		reconcileErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "subscription_reconcile_errors_total",
			Help: "Failed reconciliation sweeps",
		}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "subscription_gateway_breaker_state",
			Help: "Gateway circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
	}
}

func (m *Metrics) transition(from, to Status, source string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(normalize(from)), string(to), source).Inc()
}

func (m *Metrics) gatewayCall(op string, err error) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) webhook(event EventType, res string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(string(event), res).Inc()
}

func (m *Metrics) activated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciled.Add(float64(n))
}

func (m *Metrics) reconcileFailed() {
	if m == nil {
		return
	}
	m.reconcileErrors.Inc()
}

func (m *Metrics) breaker(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
