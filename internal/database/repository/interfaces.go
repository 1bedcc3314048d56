// Package repository implements the repository pattern for data access.
package repository

import (
	"context"

	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/pagination"
)

// Store is the document-store capability set a repository is built on.
// mongodb.Repository and memory.Store both satisfy it.
type Store[T any] interface {
	// FindOne returns the first live document matching filter, or nil.
	FindOne(ctx context.Context, filter mongodb.Filter) (*T, error)
	// Find returns all live documents matching filter.
	Find(ctx context.Context, filter mongodb.Filter, opts *mongodb.FindOptions) ([]T, error)
	// Count returns the number of live documents matching filter.
	Count(ctx context.Context, filter mongodb.Filter) (int64, error)
	// Delete soft-deletes live documents matching filter.
	Delete(ctx context.Context, filter mongodb.Filter) (int64, error)
	// FindDeleted returns the first soft-deleted document matching filter, or nil.
	FindDeleted(ctx context.Context, filter mongodb.Filter) (*T, error)
}

// TemplateRepo defines the notification template operations consumed by the
// HTTP API and the CLI. Both NotificationTemplateRepository and
// CachedTemplateRepository satisfy this interface.
type TemplateRepo interface {
	// FindByTriggerIdentifier returns the template in the environment owning
	// a trigger with the given identifier.
	FindByTriggerIdentifier(ctx context.Context, environmentID, identifier string) (*models.NotificationTemplate, error)
	// FindByID returns the template with the given id in the organization.
	FindByID(ctx context.Context, id, organizationID string) (*models.NotificationTemplate, error)
	// GetList returns a page of templates, newest first.
	GetList(ctx context.Context, organizationID, environmentID string, page pagination.PageRequest) (*pagination.Result[models.NotificationTemplate], error)
	// GetActiveList returns templates filtered by the active flag when set.
	GetActiveList(ctx context.Context, organizationID, environmentID string, active *bool) ([]models.NotificationTemplate, error)
	// Delete soft-deletes the template with the given id.
	Delete(ctx context.Context, id string) error
	// FindDeleted returns the first soft-deleted template matching filter.
	FindDeleted(ctx context.Context, filter mongodb.Filter) (*models.NotificationTemplate, error)
}

// Stores holds the stores a NotificationTemplateRepository reads from.
type Stores struct {
	Templates        Store[models.NotificationTemplate]
	MessageTemplates Store[models.MessageTemplate]
	Groups           Store[models.NotificationGroup]
}
