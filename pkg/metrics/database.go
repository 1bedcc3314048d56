package metrics

import (
	"context"
	"errors"
	"strings"
	"time"
)

// StoreMetrics records document store operation metrics.
type StoreMetrics struct {
	registry *Registry
}

// Store returns the store metrics interface for the registry.
func (r *Registry) Store() *StoreMetrics {
	return &StoreMetrics{registry: r}
}

// Operation names a document store call.
type Operation string

const (
	OperationFind        Operation = "find"
	OperationFindOne     Operation = "find_one"
	OperationCount       Operation = "count"
	OperationInsert      Operation = "insert"
	OperationSoftDelete  Operation = "soft_delete"
	OperationFindDeleted Operation = "find_deleted"
)

// QueryStatus represents the result status of a store operation.
type QueryStatus string

const (
	QueryStatusSuccess QueryStatus = "success"
	QueryStatusError   QueryStatus = "error"
)

// RecordOperation records count and latency for one store operation.
func (s *StoreMetrics) RecordOperation(operation Operation, collection string, duration time.Duration, err error) {
	status := QueryStatusSuccess
	if err != nil {
		status = QueryStatusError
	}

	s.registry.storeOperationsTotal.WithLabelValues(
		string(operation),
		collection,
		string(status),
	).Inc()

	s.registry.storeOperationDuration.WithLabelValues(
		string(operation),
		collection,
	).Observe(duration.Seconds())
}

// RecordOperationError records an operation error with error type classification.
func (s *StoreMetrics) RecordOperationError(operation Operation, collection string, errorType string) {
	s.registry.storeOperationErrors.WithLabelValues(
		string(operation),
		collection,
		errorType,
	).Inc()
}

// ConnectionOpened tracks a new pool connection.
func (s *StoreMetrics) ConnectionOpened() { s.registry.storeConnectionsOpen.Inc() }

// ConnectionClosed tracks a pool connection being closed.
func (s *StoreMetrics) ConnectionClosed() { s.registry.storeConnectionsOpen.Dec() }

// ConnectionCheckedOut tracks a connection leaving the pool.
func (s *StoreMetrics) ConnectionCheckedOut() { s.registry.storeConnectionsInUse.Inc() }

// ConnectionCheckedIn tracks a connection returning to the pool.
func (s *StoreMetrics) ConnectionCheckedIn() { s.registry.storeConnectionsInUse.Dec() }

// QueryTimer provides a convenient way to time store operations.
type QueryTimer struct {
	store      *StoreMetrics
	operation  Operation
	collection string
	start      time.Time
}

// NewQueryTimer creates a new query timer.
func (s *StoreMetrics) NewQueryTimer(operation Operation, collection string) *QueryTimer {
	return &QueryTimer{
		store:      s,
		operation:  operation,
		collection: collection,
		start:      time.Now(),
	}
}

// Done records the operation duration and any error.
func (qt *QueryTimer) Done(err error) {
	qt.store.RecordOperation(qt.operation, qt.collection, time.Since(qt.start), err)

	if err != nil {
		qt.store.RecordOperationError(qt.operation, qt.collection, classifyStoreError(err))
	}
}

// classifyStoreError attempts to classify a store error for metrics.
func classifyStoreError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection"):
		return "connection"
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "duplicate"):
		return "duplicate_key"
	case strings.Contains(errStr, "closed"):
		return "client_closed"
	case strings.Contains(errStr, "decode"):
		return "decode"
	default:
		return "unknown"
	}
}
