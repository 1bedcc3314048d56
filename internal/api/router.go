// Package api provides the HTTP API for notification templates.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bargom/notifydal/internal/api/handlers"
	"github.com/bargom/notifydal/pkg/logging"
	"github.com/bargom/notifydal/pkg/metrics"
)

// DefaultRequestTimeout bounds each request when RouterConfig leaves it unset.
const DefaultRequestTimeout = 60 * time.Second

// RouterConfig holds optional router dependencies.
type RouterConfig struct {
	// Metrics enables request metrics and the /metrics endpoint.
	Metrics *metrics.Registry
	// Logger receives one line per request. Defaults to slog.Default().
	Logger *slog.Logger
	// RequestTimeout cancels the request context after this long.
	RequestTimeout time.Duration
	// Verbosity controls how much of each request is logged.
	Verbosity logging.Verbosity
}

// NewRouter creates a new Chi router with all routes and middleware configured.
func NewRouter(h *handlers.Handler) chi.Router {
	return NewRouterWithConfig(h, RouterConfig{Verbosity: logging.VerbosityStandard})
}

// NewRouterWithConfig creates a new Chi router with optional dependencies.
func NewRouterWithConfig(h *handlers.Handler, cfg RouterConfig) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(logging.NewHTTPMiddleware(cfg.Logger).WithVerbosity(cfg.Verbosity).Handler)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(metrics.HTTPMiddlewareWithOptions(cfg.Metrics, metrics.MiddlewareOptions{
			SkipPaths: []string{"/metrics"},
		}))
	}
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/v1/notification-templates", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Use(h.RequireTenant)

		r.Get("/", h.ListTemplates)
		r.Get("/active", h.ListActiveTemplates)
		r.Get("/triggers/{identifier}", h.GetByTrigger)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTemplate)
			r.Delete("/", h.DeleteTemplate)
			r.Get("/deleted", h.GetDeletedTemplate)
		})
	})

	return r
}

// jsonContentType is middleware that sets the Content-Type header to application/json.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
