package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthStatus represents the health state of the MongoDB connection.
type HealthStatus string

const (
	// HealthStatusHealthy indicates the connection is healthy.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusUnhealthy indicates the connection is unhealthy.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	// HealthStatusDegraded means the server answers but a required
	// collection is missing.
	HealthStatusDegraded HealthStatus = "degraded"
)

var errClientUnavailable = errors.New("mongodb: client is closed")

// HealthCheck probes the server and the collections the repository reads.
type HealthCheck struct {
	client   *Client
	logger   *slog.Logger
	timeout  time.Duration
	required []string
	watched  []string
}

// HealthCheckResult contains the result of a health check.
type HealthCheckResult struct {
	Status    HealthStatus
	Message   string
	Latency   time.Duration
	Details   map[string]interface{}
	Timestamp time.Time
}

// NewHealthCheck creates a new health check for the given client.
func NewHealthCheck(client *Client, logger *slog.Logger) *HealthCheck {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthCheck{
		client:  client,
		logger:  logger.With(slog.String("component", "mongodb-health")),
		timeout: 5 * time.Second,
	}
}

// RequireCollections makes readiness fail, and Check report degraded, until
// every named collection exists.
func (h *HealthCheck) RequireCollections(names ...string) {
	h.required = append(h.required, names...)
}

// WatchCollections adds the estimated document count of each named
// collection to the check details. Missing collections report zero.
func (h *HealthCheck) WatchCollections(names ...string) {
	h.watched = append(h.watched, names...)
}

// SetTimeout sets the timeout for health check operations.
func (h *HealthCheck) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// Check pings the primary, reads the server version and inspects the
// required and watched collections.
func (h *HealthCheck) Check(ctx context.Context) HealthCheckResult {
	start := time.Now()
	result := HealthCheckResult{
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}
	done := func(status HealthStatus, msg string) HealthCheckResult {
		result.Status = status
		result.Message = msg
		result.Latency = time.Since(start)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
		return done(HealthStatusUnhealthy, err.Error())
	}

	db := h.client.Database()
	result.Details["database"] = db.Name()

	var info struct {
		Version string `bson:"version"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err == nil {
		result.Details["version"] = info.Version
	}

	for _, name := range h.watched {
		n, err := db.Collection(name).EstimatedDocumentCount(ctx)
		if err != nil {
			h.logger.DebugContext(ctx, "collection count failed",
				slog.String("collection", name), slog.String("error", err.Error()))
			continue
		}
		result.Details[name] = n
	}

	if missing, err := h.missingCollections(ctx); err != nil {
		return done(HealthStatusUnhealthy, fmt.Sprintf("listing collections failed: %v", err))
	} else if len(missing) > 0 {
		result.Details["missingCollections"] = missing
		return done(HealthStatusDegraded, fmt.Sprintf("collection %q missing", missing[0]))
	}

	result = done(HealthStatusHealthy, "connection is healthy")
	h.logger.DebugContext(ctx, "health check passed", slog.Duration("latency", result.Latency))
	return result
}

// IsHealthy returns true if the connection is healthy.
func (h *HealthCheck) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Status == HealthStatusHealthy
}

// Ping verifies the primary is reachable.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.ping(ctx)
}

// CheckReadiness returns an error until the server answers and every
// required collection exists.
func (h *HealthCheck) CheckReadiness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		return err
	}
	missing, err := h.missingCollections(ctx)
	if err != nil {
		return fmt.Errorf("mongodb: not ready: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("mongodb: not ready: collection %q missing", missing[0])
	}
	return nil
}

func (h *HealthCheck) ping(ctx context.Context) error {
	if h.client.IsClosed() || h.client.Client() == nil {
		return errClientUnavailable
	}
	if err := h.client.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return nil
}

func (h *HealthCheck) missingCollections(ctx context.Context) ([]string, error) {
	if len(h.required) == 0 {
		return nil, nil
	}
	names, err := h.client.Database().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(names))
	for _, n := range names {
		existing[n] = struct{}{}
	}
	var missing []string
	for _, want := range h.required {
		if _, ok := existing[want]; !ok {
			missing = append(missing, want)
		}
	}
	return missing, nil
}
