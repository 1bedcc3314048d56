// Package handlers contains HTTP request handlers for the API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/internal/pagination"
	"github.com/bargom/notifydal/pkg/logging"
)

// HealthChecker reports the health of the storage backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) mongodb.HealthCheckResult
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	templates repository.TemplateRepo
	health    HealthChecker
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a new Handler. health may be nil, in which case /health
// reports healthy without probing storage.
func NewHandler(templates repository.TemplateRepo, health HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		templates: templates,
		health:    health,
		validate:  validator.New(),
		logger:    logger.With("component", "handlers"),
	}
}

// respondJSON writes a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Warn("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

// respondError writes a JSON error response with the given status code.
func (h *Handler) respondError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, types.ErrorResponse{Error: message})
}

// respondValidationError writes a JSON validation error response.
func (h *Handler) respondValidationError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]string)
		for _, e := range validationErrs {
			details[e.Field()] = formatValidationError(e)
		}
		h.respondJSON(w, http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation failed",
			Details: details,
		})
		return
	}
	h.respondError(w, http.StatusBadRequest, "invalid input")
}

// respondRepoError maps repository errors onto status codes.
func (h *Handler) respondRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInvalidID), errors.Is(err, pagination.ErrInvalidPageParam):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		logging.LoggerFromContext(r.Context(), h.logger).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// formatValidationError formats a validation error into a human-readable message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "mongodb":
		return "must be a 24 character hex object id"
	case "boolean":
		return "must be true or false"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
