// Package cache provides caching functionality with Redis and in-memory backends.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Backend types accepted by New.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNone   = "none"
)

// Cache defines the interface for cache operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// DeletePattern deletes keys matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) error

	Close() error
	Health(ctx context.Context) error
	Stats() Stats
}

// Stats holds cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Keys       int64
	MemoryUsed int64
}

// Config holds cache configuration.
type Config struct {
	// Type is the cache backend type: "redis", "memory" or "none"
	Type string

	// Redis configuration
	URL      string // Redis URL (redis://localhost:6379)
	Password string
	DB       int

	// Connection pool settings
	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	// General settings
	DefaultTTL time.Duration
	Prefix     string

	// Memory cache settings
	MaxMemory int64 // Maximum memory in bytes (0 = unlimited)
	MaxItems  int   // Maximum number of items (0 = unlimited)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Type:         TypeMemory,
		DefaultTTL:   5 * time.Minute,
		Prefix:       "notifydal",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		MaxMemory:    64 * 1024 * 1024, // 64MB
		MaxItems:     10000,
	}
}

// New creates a new cache instance based on configuration.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case TypeRedis:
		return NewRedisCache(cfg)
	case TypeMemory, "":
		return NewMemoryCache(cfg), nil
	case TypeNone:
		return NoopCache{}, nil
	default:
		return nil, errors.New("unsupported cache type: " + cfg.Type)
	}
}

// NoopCache misses on every read and discards every write.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, ...string) error                  { return nil }
func (NoopCache) GetJSON(context.Context, string, any) error               { return ErrCacheMiss }
func (NoopCache) SetJSON(context.Context, string, any, time.Duration) error {
	return nil
}
func (NoopCache) DeletePattern(context.Context, string) error { return nil }
func (NoopCache) Close() error                                { return nil }
func (NoopCache) Health(context.Context) error                { return nil }
func (NoopCache) Stats() Stats                                { return Stats{} }
