// Package mongodb provides MongoDB database connectivity and repository operations.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bargom/notifydal/pkg/metrics"
)

// Common errors returned by repository operations.
var (
	ErrDuplicateKey = errors.New("duplicate key error")
	ErrClientClosed = errors.New("mongodb client is closed")
)

// Soft-delete marker fields.
const (
	FieldDeleted   = "deleted"
	FieldDeletedAt = "deletedAt"
	FieldDeletedBy = "deletedBy"
)

// Filter represents a MongoDB query filter.
type Filter bson.M

// FindOptions contains options for find operations.
type FindOptions struct {
	Sort       bson.D
	Limit      int64
	Skip       int64
	Projection bson.M
}

// Repository provides typed read, insert and soft-delete operations over a
// single collection. Results are decoded straight into T.
type Repository[T any] struct {
	client     *Client
	collection *mongo.Collection
	collName   string
	softDelete bool
	metrics    *metrics.StoreMetrics
	logger     *slog.Logger
}

// RepositoryOption configures optional Repository behavior.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	softDelete bool
	metrics    *metrics.StoreMetrics
}

// WithSoftDelete enables the soft-delete plugin: normal reads skip records
// whose deleted flag is set, Delete marks instead of removing, and
// FindDeleted reads only marked records.
func WithSoftDelete() RepositoryOption {
	return func(o *repositoryOptions) { o.softDelete = true }
}

// WithStoreMetrics overrides the metrics sink inherited from the client.
func WithStoreMetrics(m *metrics.StoreMetrics) RepositoryOption {
	return func(o *repositoryOptions) { o.metrics = m }
}

// NewRepository creates a new repository for the specified collection.
func NewRepository[T any](client *Client, collectionName string, logger *slog.Logger, opts ...RepositoryOption) *Repository[T] {
	if logger == nil {
		logger = slog.Default()
	}

	o := repositoryOptions{metrics: client.Metrics()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{
		client:     client,
		collection: client.Collection(collectionName),
		collName:   collectionName,
		softDelete: o.softDelete,
		metrics:    o.metrics,
		logger:     logger.With(slog.String("collection", collectionName)),
	}
}

// Collection returns the underlying mongo.Collection.
func (r *Repository[T]) Collection() *mongo.Collection {
	return r.collection
}

// CollectionName returns the collection this repository reads.
func (r *Repository[T]) CollectionName() string {
	return r.collName
}

// =============================================================================
// Reads
// =============================================================================

// FindOne returns the first non-deleted document matching the filter, or nil
// when nothing matches.
func (r *Repository[T]) FindOne(ctx context.Context, filter Filter) (item *T, err error) {
	defer r.observe(metrics.OperationFindOne)(&err)

	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}

	return r.findOne(ctx, r.notDeleted(filter))
}

// Find returns all non-deleted documents matching the filter. The result is
// never nil.
func (r *Repository[T]) Find(ctx context.Context, filter Filter, opts *FindOptions) (items []T, err error) {
	defer r.observe(metrics.OperationFind)(&err)

	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}

	findOpts := options.Find()
	if opts != nil {
		if len(opts.Sort) > 0 {
			findOpts.SetSort(opts.Sort)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
		if opts.Projection != nil {
			findOpts.SetProjection(opts.Projection)
		}
	}

	cursor, err := r.collection.Find(ctx, r.notDeleted(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("cursor decode failed: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	return items, nil
}

// Count returns the number of non-deleted documents matching the filter.
func (r *Repository[T]) Count(ctx context.Context, filter Filter) (n int64, err error) {
	defer r.observe(metrics.OperationCount)(&err)

	if r.client.IsClosed() {
		return 0, ErrClientClosed
	}

	n, err = r.collection.CountDocuments(ctx, r.notDeleted(filter))
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}

	return n, nil
}

// =============================================================================
// Writes
// =============================================================================

// InsertOne inserts a single document and returns its id as a string.
func (r *Repository[T]) InsertOne(ctx context.Context, doc *T) (id string, err error) {
	defer r.observe(metrics.OperationInsert)(&err)

	if r.client.IsClosed() {
		return "", ErrClientClosed
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return "", fmt.Errorf("insertOne failed: %w", err)
	}

	return formatID(result.InsertedID), nil
}

// =============================================================================
// Soft Delete
// =============================================================================

// Delete marks every non-deleted document matching the filter as deleted and
// returns how many were marked. Without the soft-delete plugin it removes them.
func (r *Repository[T]) Delete(ctx context.Context, filter Filter) (n int64, err error) {
	defer r.observe(metrics.OperationSoftDelete)(&err)

	if r.client.IsClosed() {
		return 0, ErrClientClosed
	}

	if !r.softDelete {
		result, err := r.collection.DeleteMany(ctx, TranslateFilter(filter))
		if err != nil {
			return 0, fmt.Errorf("deleteMany failed: %w", err)
		}
		return result.DeletedCount, nil
	}

	update := bson.M{"$set": bson.M{
		FieldDeleted:   true,
		FieldDeletedAt: time.Now().UTC(),
	}}

	result, err := r.collection.UpdateMany(ctx, r.notDeleted(filter), update)
	if err != nil {
		return 0, fmt.Errorf("soft delete failed: %w", err)
	}

	r.logger.Debug("soft deleted documents", slog.Int64("count", result.ModifiedCount))
	return result.ModifiedCount, nil
}

// FindDeleted returns the first soft-deleted document matching the filter, or
// nil when nothing matches.
func (r *Repository[T]) FindDeleted(ctx context.Context, filter Filter) (item *T, err error) {
	defer r.observe(metrics.OperationFindDeleted)(&err)

	if r.client.IsClosed() {
		return nil, ErrClientClosed
	}

	if !r.softDelete {
		return nil, nil
	}

	f := TranslateFilter(filter)
	f[FieldDeleted] = true
	return r.findOne(ctx, f)
}

// =============================================================================
// Helper Functions
// =============================================================================

func (r *Repository[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var item T
	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("findOne failed: %w", err)
	}
	return &item, nil
}

// notDeleted translates the filter and, when soft delete is on, excludes
// deleted documents unless the caller already constrained the flag.
func (r *Repository[T]) notDeleted(filter Filter) bson.M {
	f := TranslateFilter(filter)
	if r.softDelete {
		if _, ok := f[FieldDeleted]; !ok {
			f[FieldDeleted] = bson.M{"$ne": true}
		}
	}
	return f
}

// observe starts a query timer and returns a func that records the outcome
// held in *errp.
func (r *Repository[T]) observe(op metrics.Operation) func(errp *error) {
	if r.metrics == nil {
		return func(*error) {}
	}
	timer := r.metrics.NewQueryTimer(op, r.collName)
	return func(errp *error) {
		timer.Done(*errp)
	}
}

// TranslateFilter copies a Filter into a bson.M, converting hex string _id
// values to ObjectIDs.
func TranslateFilter(filter Filter) bson.M {
	result := bson.M{}
	for k, v := range filter {
		if k == "_id" {
			if idStr, ok := v.(string); ok {
				if oid, err := primitive.ObjectIDFromHex(idStr); err == nil {
					result[k] = oid
					continue
				}
			}
		}
		result[k] = v
	}
	return result
}

// formatID converts an ID value to a string.
func formatID(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
