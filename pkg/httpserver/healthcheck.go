package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

// Check is a named readiness probe for one dependency.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// HealthStatus is the body written by HealthCheckHandler.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DefaultCheckTimeout bounds each readiness probe.
const DefaultCheckTimeout = 3 * time.Second

// HealthCheckHandler serves liveness when no checks are given ("alive", 200)
// and readiness otherwise: every check runs with DefaultCheckTimeout and the
// handler answers 200 "ready" or 503 "not_ready" with per-check results.
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{Status: "alive"}
		code := http.StatusOK

		if len(checks) > 0 {
			status.Status = "ready"
			status.Checks = make(map[string]string, len(checks))
			for _, c := range checks {
				ctx, cancel := context.WithTimeout(r.Context(), DefaultCheckTimeout)
				err := c.Fn(ctx)
				cancel()

				if err != nil {
					log.ErrorContext(r.Context(), "readiness check failed",
						logger.Component("httpserver"),
						slog.String("check", c.Name),
						logger.Error(err),
					)
					status.Checks[c.Name] = "failed"
					status.Status = "not_ready"
					code = http.StatusServiceUnavailable
					continue
				}
				status.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
