package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// healthHandler answers readiness/liveness probes. With checks configured it
// reports 503 and the failing dependency names when any of them fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		status, body := http.StatusOK, map[string]any{"status": "ok"}
		if len(failed) > 0 {
			status, body = http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, body)
	}
}
