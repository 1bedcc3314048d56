// Package mongodb provides MongoDB database connectivity and operations.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bargom/notifydal/pkg/metrics"
)

// Client wraps a MongoDB client with connection management and logging.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	config   Config
	logger   *slog.Logger
	metrics  *metrics.StoreMetrics
	mu       sync.RWMutex
	closed   bool
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithMetrics reports connection pool events to the given registry.
func WithMetrics(reg *metrics.Registry) ClientOption {
	return func(c *Client) {
		if reg != nil {
			c.metrics = reg.Store()
		}
	}
}

// New creates a new MongoDB client with the given configuration.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "mongodb"))

	client := &Client{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(client)
	}

	if err := client.connect(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes the connection to MongoDB with retry logic.
func (c *Client) connect(ctx context.Context) error {
	rp, err := c.config.readPref()
	if err != nil {
		return err
	}
	opts := options.Client().
		ApplyURI(c.config.URI).
		SetMinPoolSize(c.config.MinPoolSize).
		SetMaxPoolSize(c.config.MaxPoolSize).
		SetAppName(c.config.AppName).
		SetConnectTimeout(c.config.ConnectTimeout).
		SetSocketTimeout(c.config.SocketTimeout).
		SetServerSelectionTimeout(c.config.ServerSelectionTimeout).
		SetRetryWrites(c.config.RetryWrites).
		SetRetryReads(c.config.RetryReads).
		SetReadPreference(rp)
	if c.metrics != nil {
		opts.SetPoolMonitor(c.poolMonitor())
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("retrying connection",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))

			select {
			case <-ctx.Done():
				return fmt.Errorf("mongodb: connection cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			lastErr = err
			c.logger.Warn("connection attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		// Verify connection with ping
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			lastErr = err
			c.logger.Warn("ping failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			// Disconnect failed client
			_ = client.Disconnect(ctx)
			continue
		}

		c.client = client
		c.database = client.Database(c.config.Database)
		c.logger.Info("connected to MongoDB",
			slog.String("uri", c.config.RedactedURI()),
			slog.String("database", c.config.Database),
			slog.String("read_preference", rp.Mode().String()))
		return nil
	}

	return fmt.Errorf("mongodb: failed to connect after %d attempts: %w",
		c.config.MaxRetries+1, lastErr)
}

// calculateBackoff computes exponential backoff with jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.config.RetryBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}
	return backoff
}

// poolMonitor feeds driver pool events into the connection gauges.
func (c *Client) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				c.metrics.ConnectionOpened()
			case event.ConnectionClosed:
				c.metrics.ConnectionClosed()
			case event.GetSucceeded:
				c.metrics.ConnectionCheckedOut()
			case event.ConnectionReturned:
				c.metrics.ConnectionCheckedIn()
			}
		},
	}
}

// Metrics returns the store metrics the client was created with, or nil.
func (c *Client) Metrics() *metrics.StoreMetrics {
	return c.metrics
}

// Database returns the MongoDB database handle.
func (c *Client) Database() *mongo.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// Collection returns a collection from the database.
func (c *Client) Collection(name string) *mongo.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.database == nil {
		return nil
	}
	return c.database.Collection(name)
}

// Client returns the underlying mongo.Client.
func (c *Client) Client() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Close gracefully disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	if c.client == nil {
		c.closed = true
		return nil
	}

	c.logger.Info("disconnecting from MongoDB")

	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: disconnect failed: %w", err)
	}

	c.closed = true
	c.client = nil
	c.database = nil

	c.logger.Info("disconnected from MongoDB")
	return nil
}

// IsClosed returns true if the client has been closed.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
