package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Request headers read by the middleware.
const (
	RequestHeaderRequestID      = "X-Request-ID"
	RequestHeaderOrganizationID = "X-Organization-Id"
	RequestHeaderEnvironmentID  = "X-Environment-Id"
)

// HTTPMiddleware provides HTTP request logging middleware.
type HTTPMiddleware struct {
	logger    *slog.Logger
	verbosity Verbosity
}

// Verbosity controls how much request/response detail is logged.
type Verbosity int

const (
	// VerbosityMinimal logs only method, path, status, and duration.
	VerbosityMinimal Verbosity = iota
	// VerbosityStandard logs additional request metadata.
	VerbosityStandard
	// VerbosityVerbose logs request headers.
	VerbosityVerbose
)

// NewHTTPMiddleware creates a new HTTP logging middleware.
func NewHTTPMiddleware(logger *slog.Logger) *HTTPMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPMiddleware{
		logger:    logger.With("component", "http"),
		verbosity: VerbosityStandard,
	}
}

// WithVerbosity sets the logging verbosity level.
func (m *HTTPMiddleware) WithVerbosity(v Verbosity) *HTTPMiddleware {
	return &HTTPMiddleware{
		logger:    m.logger,
		verbosity: v,
	}
}

// Handler returns the middleware handler. It stores the request ID and the
// tenant headers in the request context and logs one line per request.
func (m *HTTPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rc := RequestContext{
			RequestID:      r.Header.Get(RequestHeaderRequestID),
			OrganizationID: r.Header.Get(RequestHeaderOrganizationID),
			EnvironmentID:  r.Header.Get(RequestHeaderEnvironmentID),
		}
		if rc.RequestID == "" {
			rc.RequestID = GenerateRequestID()
		}
		ctx := rc.ToContext(r.Context())

		w.Header().Set(RequestHeaderRequestID, rc.RequestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		attrs := m.buildLogAttrs(r, wrapped, time.Since(start))

		level := slog.LevelInfo
		if wrapped.status >= 500 {
			level = slog.LevelError
		} else if wrapped.status >= 400 {
			level = slog.LevelWarn
		}

		m.logger.LogAttrs(ctx, level, "http request", attrs...)
	})
}

func (m *HTTPMiddleware) buildLogAttrs(r *http.Request, w *responseWriter, duration time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", w.status),
		slog.Duration("duration", duration),
	}

	if m.verbosity >= VerbosityStandard {
		attrs = append(attrs,
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
			slog.Int64("response_bytes", w.bytes),
		)
		if r.URL.RawQuery != "" {
			attrs = append(attrs, slog.String("query", r.URL.RawQuery))
		}
	}

	if m.verbosity >= VerbosityVerbose {
		headers := make(map[string]string)
		for k, v := range r.Header {
			if len(v) == 0 {
				continue
			}
			if IsSensitiveField(k) {
				headers[k] = RedactedValue
			} else {
				headers[k] = v[0]
			}
		}
		attrs = append(attrs, slog.Any("request_headers", headers))
	}

	return attrs
}

// responseWriter wraps http.ResponseWriter to capture status and bytes written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

// WriteHeader captures the status code.
func (w *responseWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write captures the bytes written.
func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter (for http.ResponseController).
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogger is a convenience function to create a middleware that logs requests.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return NewHTTPMiddleware(logger).Handler
}

// LoggerFromContext returns baseLogger with the request and tenant values
// from ctx attached.
func LoggerFromContext(ctx context.Context, baseLogger *slog.Logger) *slog.Logger {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	rc := FromContext(ctx)
	attrs := make([]any, 0, 6)
	if rc.RequestID != "" {
		attrs = append(attrs, string(RequestIDKey), rc.RequestID)
	}
	if rc.OrganizationID != "" {
		attrs = append(attrs, string(OrganizationIDKey), rc.OrganizationID)
	}
	if rc.EnvironmentID != "" {
		attrs = append(attrs, string(EnvironmentIDKey), rc.EnvironmentID)
	}

	return baseLogger.With(attrs...)
}
