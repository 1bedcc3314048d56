// Package memory provides an in-process document store that evaluates the
// same filters as the mongodb repositories. It backs unit tests and the
// storage-free development mode.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/database/mongodb"
)

// ErrUnsupportedOperator is returned for filter operators the store cannot evaluate.
var ErrUnsupportedOperator = errors.New("unsupported filter operator")

// Store keeps documents of type T as BSON maps, in insertion order.
type Store[T any] struct {
	mu         sync.RWMutex
	docs       []bson.M
	softDelete bool
	now        func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	softDelete bool
	now        func() time.Time
}

// WithSoftDelete makes Delete mark documents instead of removing them.
func WithSoftDelete() Option {
	return func(o *options) { o.softDelete = true }
}

// WithClock overrides the time source used for deletedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates an empty store.
func NewStore[T any](opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		docs:       []bson.M{},
		softDelete: o.softDelete,
		now:        o.now,
	}
}

// InsertOne stores a copy of doc and returns its id. A missing _id is generated.
func (s *Store[T]) InsertOne(ctx context.Context, doc *T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m, err := toMap(doc)
	if err != nil {
		return "", err
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs {
		if equalValues(existing["_id"], m["_id"]) {
			return "", fmt.Errorf("%w: _id %v", mongodb.ErrDuplicateKey, m["_id"])
		}
	}
	s.docs = append(s.docs, m)

	if oid, ok := m["_id"].(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", m["_id"]), nil
}

// FindOne returns the first live document matching filter, or nil.
func (s *Store[T]) FindOne(ctx context.Context, filter mongodb.Filter) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.first(s.liveFilter(filter))
}

// Find returns all live documents matching filter. The result is never nil.
func (s *Store[T]) Find(ctx context.Context, filter mongodb.Filter, opts *mongodb.FindOptions) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(s.liveFilter(filter))
	if err != nil {
		return nil, err
	}

	if opts != nil {
		if len(opts.Sort) > 0 {
			sortDocs(matched, opts.Sort)
		}
		matched = window(matched, opts.Skip, opts.Limit)
	}

	items := make([]T, 0, len(matched))
	for _, m := range matched {
		item, err := fromMap[T](m)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// Count returns the number of live documents matching filter.
func (s *Store[T]) Count(ctx context.Context, filter mongodb.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(s.liveFilter(filter))
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Delete marks (or, without soft delete, removes) live documents matching
// filter and returns how many were affected.
func (s *Store[T]) Delete(ctx context.Context, filter mongodb.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.liveFilter(filter)
	var n int64

	if !s.softDelete {
		kept := s.docs[:0]
		for _, d := range s.docs {
			ok, err := matches(d, f)
			if err != nil {
				return 0, err
			}
			if ok {
				n++
				continue
			}
			kept = append(kept, d)
		}
		s.docs = kept
		return n, nil
	}

	deletedAt := primitive.NewDateTimeFromTime(s.now().UTC())
	for _, d := range s.docs {
		ok, err := matches(d, f)
		if err != nil {
			return 0, err
		}
		if ok {
			d[mongodb.FieldDeleted] = true
			d[mongodb.FieldDeletedAt] = deletedAt
			n++
		}
	}
	return n, nil
}

// FindDeleted returns the first soft-deleted document matching filter, or nil.
func (s *Store[T]) FindDeleted(ctx context.Context, filter mongodb.Filter) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.softDelete {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f := mongodb.TranslateFilter(filter)
	f[mongodb.FieldDeleted] = true
	return s.first(f)
}

// Len returns the number of stored documents, deleted ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store[T]) liveFilter(filter mongodb.Filter) bson.M {
	f := mongodb.TranslateFilter(filter)
	if s.softDelete {
		if _, ok := f[mongodb.FieldDeleted]; !ok {
			f[mongodb.FieldDeleted] = bson.M{"$ne": true}
		}
	}
	return f
}

func (s *Store[T]) first(f bson.M) (*T, error) {
	for _, d := range s.docs {
		ok, err := matches(d, f)
		if err != nil {
			return nil, err
		}
		if ok {
			return fromMap[T](d)
		}
	}
	return nil, nil
}

// match returns the matching documents in insertion order. The slice is
// fresh but the documents are shared; callers hold the lock.
func (s *Store[T]) match(f bson.M) ([]bson.M, error) {
	out := []bson.M{}
	for _, d := range s.docs {
		ok, err := matches(d, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func window(docs []bson.M, skip, limit int64) []bson.M {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return []bson.M{}
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}

func sortDocs(docs []bson.M, order bson.D) {
	slices.SortStableFunc(docs, func(a, b bson.M) int {
		for _, key := range order {
			dir := 1
			switch v := key.Value.(type) {
			case int:
				if v < 0 {
					dir = -1
				}
			case int32:
				if v < 0 {
					dir = -1
				}
			case int64:
				if v < 0 {
					dir = -1
				}
			}
			if c := compareValues(firstValue(a, key.Key), firstValue(b, key.Key)); c != 0 {
				return c * dir
			}
		}
		return 0
	})
}

func toMap(doc interface{}) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory: encode failed: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("memory: encode failed: %w", err)
	}
	return m, nil
}

func fromMap[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("memory: decode failed: %w", err)
	}
	var item T
	if err := bson.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("memory: decode failed: %w", err)
	}
	return &item, nil
}
