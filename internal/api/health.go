package api

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every check with a short deadline. Any failure turns the
// response into 503.
func Health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		respondJSON(w, status, resp)
	}
}
