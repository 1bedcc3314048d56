package metrics

import (
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
)

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	status int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (w *metricsResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap returns the original ResponseWriter for http.ResponseController.
func (w *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// HTTPMiddleware returns an HTTP middleware that records metrics for each request.
func HTTPMiddleware(registry *Registry) func(http.Handler) http.Handler {
	return HTTPMiddlewareWithOptions(registry, MiddlewareOptions{})
}

// MiddlewareOptions configures the HTTP metrics middleware.
type MiddlewareOptions struct {
	// PathNormalizer customizes how paths are normalized for metrics grouping.
	// If nil, the chi route pattern is used, falling back to DefaultPathNormalizer.
	PathNormalizer func(*http.Request) string

	// SkipPaths contains raw paths that should not be recorded in metrics.
	SkipPaths []string
}

// HTTPMiddlewareWithOptions returns an HTTP middleware with custom options.
func HTTPMiddlewareWithOptions(registry *Registry, opts MiddlewareOptions) func(http.Handler) http.Handler {
	if opts.PathNormalizer == nil {
		opts.PathNormalizer = RoutePattern
	}

	skip := make(map[string]bool, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			httpMetrics := registry.HTTP()
			wrapped := newMetricsResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			// the route pattern is only known once chi has routed the request
			path := opts.PathNormalizer(r)
			httpMetrics.RecordRequest(r.Method, path, wrapped.status, time.Since(start).Seconds())
		})
	}
}

// RoutePattern returns the matched chi route pattern, or a normalized raw path
// when the request was not routed by chi.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return DefaultPathNormalizer(r.URL.Path)
}

var (
	numericIDPattern = regexp.MustCompile(`/\d+(?:/|$)`)
	hexIDPattern     = regexp.MustCompile(`/[0-9a-fA-F]{24}(?:/|$)`)
)

// DefaultPathNormalizer normalizes paths by replacing ObjectIDs and numeric
// segments with {id}.
func DefaultPathNormalizer(path string) string {
	replace := func(s string) string {
		if s[len(s)-1] == '/' {
			return "/{id}/"
		}
		return "/{id}"
	}
	path = hexIDPattern.ReplaceAllStringFunc(path, replace)
	return numericIDPattern.ReplaceAllStringFunc(path, replace)
}
