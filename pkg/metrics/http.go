package metrics

import (
	"strconv"
)

// HTTPMetrics provides methods to record HTTP-related metrics.
type HTTPMetrics struct {
	registry *Registry
}

// HTTP returns the HTTP metrics interface for the registry.
func (r *Registry) HTTP() *HTTPMetrics {
	return &HTTPMetrics{registry: r}
}

// RecordRequest records count and latency for an HTTP request.
func (h *HTTPMetrics) RecordRequest(method, path string, statusCode int, duration float64) {
	h.registry.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	h.registry.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}
