package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheResult labels the outcome of a cache lookup.
type CacheResult string

const (
	CacheHit   CacheResult = "hit"
	CacheMiss  CacheResult = "miss"
	CacheError CacheResult = "error"
)

// CacheMetrics records cache lookup outcomes.
type CacheMetrics struct {
	registry *Registry
}

// Cache returns the cache metrics interface for the registry.
func (r *Registry) Cache() *CacheMetrics {
	return &CacheMetrics{registry: r}
}

// RecordLookup counts one lookup against the named cache.
func (c *CacheMetrics) RecordLookup(cache string, result CacheResult) {
	c.registry.cacheRequestsTotal.WithLabelValues(cache, string(result)).Inc()
}

// Counter returns the lookup counter for the named cache and result.
func (c *CacheMetrics) Counter(cache string, result CacheResult) prometheus.Counter {
	return c.registry.cacheRequestsTotal.WithLabelValues(cache, string(result))
}
