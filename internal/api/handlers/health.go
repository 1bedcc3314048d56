package handlers

import (
	"net/http"
	"time"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/internal/database/mongodb"
)

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		h.respondJSON(w, http.StatusOK, &types.HealthResponse{
			Status:    string(mongodb.HealthStatusHealthy),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	result := h.health.HealthCheck(r.Context())
	code := http.StatusOK
	if result.Status == mongodb.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(w, code, types.HealthFromResult(result))
}
