package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"sheetchart/internal/infrastructure"
)

// HealthHandler reports liveness for load balancers and probes.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
		"uptime":  time.Since(h.startedAt).String(),
	})
}
