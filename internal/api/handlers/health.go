package handlers

import (
	"context"
	"net/http"
	"time"

	"heartpet-recommender/internal/api/response"
)

// HealthChecker is any dependency that can report its health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthHandler reports the health of the service and its dependencies.
type HealthHandler struct {
	checkers map[string]HealthChecker
}

// NewHealthHandler creates a health handler over named dependencies.
func NewHealthHandler(checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// ServeHTTP handles the health check. The service reports degraded,
// not down, while any single dependency is failing; the fallback
// search path keeps recommendations flowing without the index.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: make(map[string]string, len(h.checkers)),
	}

	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			status.Components[name] = "unhealthy: " + err.Error()
			status.Status = "degraded"
		} else {
			status.Components[name] = "healthy"
		}
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	response.WriteJSON(w, code, status)
}
