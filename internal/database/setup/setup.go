// Package setup opens a storage backend and assembles the notification
// template repository on top of it. It bridges the database, cache and
// repository packages so none of them import each other.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bargom/notifydal/internal/cache"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/pkg/metrics"
)

// Backend names the document store behind the repository.
type Backend string

const (
	// BackendMongoDB stores templates in MongoDB.
	BackendMongoDB Backend = "mongodb"
	// BackendMemory keeps templates in process. Contents are lost on exit.
	BackendMemory Backend = "memory"
)

// ParseBackend parses a backend name. Empty input selects MongoDB.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mongodb", "mongo":
		return BackendMongoDB, nil
	case "memory", "mem":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unsupported storage backend: %q", s)
	}
}

// Options configures Open.
type Options struct {
	Backend Backend
	Mongo   mongodb.Config
	Cache   cache.Config
	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// Connection is an opened backend with its repository.
type Connection struct {
	backend   Backend
	client    *mongodb.Client
	health    *mongodb.HealthCheck
	cache     cache.Cache
	templates repository.TemplateRepo
	memory    *repository.MemoryStores
	logger    *slog.Logger
}

// Open connects to the configured backend and builds the repository. When the
// cache type is not "none" the repository is wrapped in a read-through cache.
func Open(ctx context.Context, opts Options) (*Connection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn := &Connection{backend: opts.Backend, logger: logger}

	var stores repository.Stores
	switch opts.Backend {
	case BackendMongoDB, "":
		conn.backend = BackendMongoDB
		var clientOpts []mongodb.ClientOption
		if opts.Metrics != nil {
			clientOpts = append(clientOpts, mongodb.WithMetrics(opts.Metrics))
		}
		client, err := mongodb.New(ctx, opts.Mongo, logger, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		conn.client = client
		conn.health = mongodb.NewHealthCheck(client, logger)
		conn.health.WatchCollections(
			models.NotificationTemplateCollection,
			models.MessageTemplateCollection,
			models.NotificationGroupCollection,
		)
		stores = repository.NewMongoStores(client, logger)

	case BackendMemory:
		conn.memory = repository.NewMemoryStores()
		stores = conn.memory.Stores()

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", opts.Backend)
	}

	var repo repository.TemplateRepo = repository.NewNotificationTemplateRepository(stores, logger)

	if opts.Cache.Type != cache.TypeNone {
		c, err := cache.New(opts.Cache)
		if err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("creating cache: %w", err)
		}
		conn.cache = c
		repo = repository.NewCachedTemplateRepository(repo, c, opts.Cache.DefaultTTL,
			repository.WithCacheMetrics(opts.Metrics),
			repository.WithCacheLogger(logger),
		)
	}

	conn.templates = repo

	logger.Info("storage opened",
		slog.String("backend", string(conn.backend)),
		slog.String("cache", cacheType(opts.Cache.Type)),
	)
	return conn, nil
}

func cacheType(t string) string {
	if t == "" {
		return cache.TypeMemory
	}
	return t
}

// Backend returns the backend this connection was opened with.
func (c *Connection) Backend() Backend {
	return c.backend
}

// Templates returns the notification template repository.
func (c *Connection) Templates() repository.TemplateRepo {
	return c.templates
}

// MongoClient returns the MongoDB client, or nil for the memory backend.
func (c *Connection) MongoClient() *mongodb.Client {
	return c.client
}

// MemoryStores returns the in-process stores, or nil for the MongoDB backend.
func (c *Connection) MemoryStores() *repository.MemoryStores {
	return c.memory
}

// Ping verifies the backend and cache are reachable.
func (c *Connection) Ping(ctx context.Context) error {
	if c.health != nil {
		if err := c.health.Ping(ctx); err != nil {
			return err
		}
	}
	if c.cache != nil {
		if err := c.cache.Health(ctx); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck runs the full backend health check. The memory backend always
// reports healthy.
func (c *Connection) HealthCheck(ctx context.Context) mongodb.HealthCheckResult {
	if c.health == nil {
		return mongodb.HealthCheckResult{
			Status:    mongodb.HealthStatusHealthy,
			Message:   "memory backend",
			Timestamp: time.Now(),
		}
	}
	return c.health.Check(ctx)
}

// Close releases the cache and the backend connection.
func (c *Connection) Close(ctx context.Context) error {
	var errs []error
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.client != nil {
		if err := c.client.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
