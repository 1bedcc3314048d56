package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages all Prometheus metrics for notifydal.
type Registry struct {
	config   Config
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Document store metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	storeOperationErrors   *prometheus.CounterVec
	storeConnectionsOpen   prometheus.Gauge
	storeConnectionsInUse  prometheus.Gauge

	// Cache metrics
	cacheRequestsTotal *prometheus.CounterVec
}

var (
	globalRegistry *Registry
	once           sync.Once
)

// NewRegistry creates a new metrics registry with the given configuration.
func NewRegistry(config Config) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		config:   config,
		registry: reg,
	}

	r.registerHTTPMetrics()
	r.registerStoreMetrics()
	r.registerCacheMetrics()

	if config.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if config.EnableRuntimeMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}

	return r
}

// Global returns the global registry instance, initializing it with default config if needed.
func Global() *Registry {
	once.Do(func() {
		globalRegistry = NewRegistry(DefaultConfig())
	})
	return globalRegistry
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Config returns the registry configuration.
func (r *Registry) Config() Config {
	return r.config
}

func (r *Registry) constLabels() prometheus.Labels {
	return prometheus.Labels(r.config.DefaultLabels)
}

func (r *Registry) registerHTTPMetrics() {
	ns := r.config.Namespace

	r.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests processed",
			ConstLabels: r.constLabels(),
		},
		[]string{"method", "path", "status_code"},
	)

	r.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     r.config.HistogramBuckets.HTTPDuration,
			ConstLabels: r.constLabels(),
		},
		[]string{"method", "path"},
	)

	r.registry.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
	)
}

func (r *Registry) registerStoreMetrics() {
	ns := r.config.Namespace

	r.storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "operations_total",
			Help:        "Total number of document store operations executed",
			ConstLabels: r.constLabels(),
		},
		[]string{"operation", "collection", "status"},
	)

	r.storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "operation_duration_seconds",
			Help:        "Document store operation duration in seconds",
			Buckets:     r.config.HistogramBuckets.StoreDuration,
			ConstLabels: r.constLabels(),
		},
		[]string{"operation", "collection"},
	)

	r.storeOperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "operation_errors_total",
			Help:        "Total number of document store operation errors",
			ConstLabels: r.constLabels(),
		},
		[]string{"operation", "collection", "error_type"},
	)

	r.storeConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "connections_open",
			Help:        "Number of open connections in the driver pool",
			ConstLabels: r.constLabels(),
		},
	)

	r.storeConnectionsInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "store",
			Name:        "connections_in_use",
			Help:        "Number of pool connections checked out",
			ConstLabels: r.constLabels(),
		},
	)

	r.registry.MustRegister(
		r.storeOperationsTotal,
		r.storeOperationDuration,
		r.storeOperationErrors,
		r.storeConnectionsOpen,
		r.storeConnectionsInUse,
	)
}

func (r *Registry) registerCacheMetrics() {
	r.cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   r.config.Namespace,
			Subsystem:   "cache",
			Name:        "requests_total",
			Help:        "Total number of cache lookups by result",
			ConstLabels: r.constLabels(),
		},
		[]string{"cache", "result"},
	)

	r.registry.MustRegister(r.cacheRequestsTotal)
}
