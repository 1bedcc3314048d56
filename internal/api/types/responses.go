package types

import (
	"time"

	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/pagination"
)

// TemplateListResponse is a page of templates with the environment total.
type TemplateListResponse = pagination.Result[models.NotificationTemplate]

// TemplatesResponse wraps an unpaginated template list.
type TemplatesResponse struct {
	Data []models.NotificationTemplate `json:"data"`
}

// NewTemplatesResponse wraps templates, replacing nil with an empty list.
func NewTemplatesResponse(templates []models.NotificationTemplate) *TemplatesResponse {
	if templates == nil {
		templates = []models.NotificationTemplate{}
	}
	return &TemplatesResponse{Data: templates}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Latency   string         `json:"latency,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// HealthFromResult converts a store health check result.
func HealthFromResult(r mongodb.HealthCheckResult) *HealthResponse {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	resp := &HealthResponse{
		Status:    string(r.Status),
		Message:   r.Message,
		Details:   r.Details,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
	if r.Latency > 0 {
		resp.Latency = r.Latency.String()
	}
	return resp
}
