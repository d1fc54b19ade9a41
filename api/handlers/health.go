package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// HealthCheck is one named readiness probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	checks []HealthCheck
	logger *slog.Logger
}

// NewHealthHandler creates the handler.
func NewHealthHandler(logger *slog.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// Get runs every probe; a single failure turns the response into 503 with
// per-probe status detail.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		if err := c.Check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			h.logger.WarnContext(r.Context(), "Health check failed",
				attr.String("check", c.Name),
				attr.Error(err),
			)
			continue
		}
		results[c.Name] = "ok"
	}

	writeJSON(w, status, results)
}
