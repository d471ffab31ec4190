package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

// Probe checks one dependency.
type Probe struct {
	Name  string
	Check func(context.Context) error
}

// LivenessHandler always answers 200 with {"status":"alive"}.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, map[string]any{"status": "alive"})
	}
}

// ReadinessHandler runs every probe within timeout. It answers 200 when all
// pass and 503 otherwise, with per-probe results.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, probes ...Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(probes))
		for _, p := range probes {
			if err := p.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[p.Name] = err.Error()
				if log != nil {
					log.ErrorContext(ctx, "readiness check failed",
						slog.String("probe", p.Name),
						logger.Error(err),
						logger.Component("httpserver"),
					)
				}
				continue
			}
			checks[p.Name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeHealth(w, status, map[string]any{"status": state, "checks": checks})
	}
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
