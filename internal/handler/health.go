package handler

import (
	"context"
	"net/http"
	"time"

	"vidtube/internal/httputil"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of each dependency.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler probes every named dependency; nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered}
}

// Check always answers 200 while the process serves; degraded dependencies
// are reported in the body.
// GET /healthcheck
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = "down"
			status["status"] = "degraded"
			continue
		}
		status[name] = "up"
	}
	httputil.WriteOK(w, status, "OK")
}
