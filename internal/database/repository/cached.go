package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/cache"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/pagination"
	"github.com/bargom/notifydal/pkg/metrics"
)

const templateCacheName = "notification_templates"

// CachedTemplateRepository is a read-through cache in front of a TemplateRepo.
// Single-record reads are cached; list reads always hit the store. Misses
// (nil results) are not cached.
type CachedTemplateRepository struct {
	next    TemplateRepo
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.CacheMetrics
	logger  *slog.Logger
}

// CachedOption configures a CachedTemplateRepository.
type CachedOption func(*CachedTemplateRepository)

// WithCacheMetrics records hit/miss counts in the registry.
func WithCacheMetrics(reg *metrics.Registry) CachedOption {
	return func(r *CachedTemplateRepository) {
		if reg != nil {
			r.metrics = reg.Cache()
		}
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(r *CachedTemplateRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewCachedTemplateRepository wraps next with c. A zero ttl uses the cache's default.
func NewCachedTemplateRepository(next TemplateRepo, c cache.Cache, ttl time.Duration, opts ...CachedOption) *CachedTemplateRepository {
	r := &CachedTemplateRepository{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Keys are built from parsed ids so every hex spelling of an id maps to
// the same entry.
func triggerKey(environmentID primitive.ObjectID, identifier string) string {
	return "templates:trigger:" + environmentID.Hex() + ":" + identifier
}

func idKey(organizationID, id primitive.ObjectID) string {
	return "templates:id:" + organizationID.Hex() + ":" + id.Hex()
}

// FindByTriggerIdentifier serves from cache when possible. An invalid
// environment id skips the cache.
func (r *CachedTemplateRepository) FindByTriggerIdentifier(ctx context.Context, environmentID, identifier string) (*models.NotificationTemplate, error) {
	load := func() (*models.NotificationTemplate, error) {
		return r.next.FindByTriggerIdentifier(ctx, environmentID, identifier)
	}
	envID, err := models.ParseID(environmentID)
	if err != nil {
		return load()
	}
	return r.readThrough(ctx, triggerKey(envID, identifier), load)
}

// FindByID serves from cache when possible. Invalid ids skip the cache.
func (r *CachedTemplateRepository) FindByID(ctx context.Context, id, organizationID string) (*models.NotificationTemplate, error) {
	load := func() (*models.NotificationTemplate, error) {
		return r.next.FindByID(ctx, id, organizationID)
	}
	oid, err := models.ParseID(id)
	if err != nil {
		return load()
	}
	orgID, err := models.ParseID(organizationID)
	if err != nil {
		return load()
	}
	return r.readThrough(ctx, idKey(orgID, oid), load)
}

// GetList is not cached.
func (r *CachedTemplateRepository) GetList(ctx context.Context, organizationID, environmentID string, page pagination.PageRequest) (*pagination.Result[models.NotificationTemplate], error) {
	return r.next.GetList(ctx, organizationID, environmentID, page)
}

// GetActiveList is not cached.
func (r *CachedTemplateRepository) GetActiveList(ctx context.Context, organizationID, environmentID string, active *bool) ([]models.NotificationTemplate, error) {
	return r.next.GetActiveList(ctx, organizationID, environmentID, active)
}

// Delete deletes through to the store, then evicts every key the deleted
// template could have been cached under.
func (r *CachedTemplateRepository) Delete(ctx context.Context, id string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return r.next.Delete(ctx, id)
	}
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}

	deleted, err := r.next.FindDeleted(ctx, mongodb.Filter{"_id": oid})
	if err != nil || deleted == nil {
		// Without the record only the id keys can be found.
		if perr := r.cache.DeletePattern(ctx, "templates:id:*:"+oid.Hex()); perr != nil {
			r.logger.WarnContext(ctx, "cache eviction failed", slog.String("id", id), slog.String("error", perr.Error()))
		}
		return nil
	}

	keys := []string{idKey(deleted.OrganizationID, oid)}
	for _, identifier := range deleted.TriggerIdentifiers() {
		keys = append(keys, triggerKey(deleted.EnvironmentID, identifier))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.WarnContext(ctx, "cache eviction failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	return nil
}

// FindDeleted is not cached.
func (r *CachedTemplateRepository) FindDeleted(ctx context.Context, filter mongodb.Filter) (*models.NotificationTemplate, error) {
	return r.next.FindDeleted(ctx, filter)
}

func (r *CachedTemplateRepository) readThrough(ctx context.Context, key string, load func() (*models.NotificationTemplate, error)) (*models.NotificationTemplate, error) {
	var cached models.NotificationTemplate
	err := r.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		r.record(metrics.CacheHit)
		return &cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		r.record(metrics.CacheMiss)
	default:
		r.record(metrics.CacheError)
		r.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	item, err := load()
	if err != nil || item == nil {
		return item, err
	}

	if err := r.cache.SetJSON(ctx, key, item, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return item, nil
}

func (r *CachedTemplateRepository) record(result metrics.CacheResult) {
	if r.metrics != nil {
		r.metrics.RecordLookup(templateCacheName, result)
	}
}
