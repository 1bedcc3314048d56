package repository

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/pagination"
)

const notificationTemplateEntity = "notification template"

// NotificationTemplateRepository provides tenant-scoped reads and soft delete
// over notification templates, resolving step templates and groups on read.
type NotificationTemplateRepository struct {
	templates Store[models.NotificationTemplate]
	messages  Store[models.MessageTemplate]
	groups    Store[models.NotificationGroup]
	logger    *slog.Logger
}

// NewNotificationTemplateRepository creates a new NotificationTemplateRepository.
func NewNotificationTemplateRepository(stores Stores, logger *slog.Logger) *NotificationTemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationTemplateRepository{
		templates: stores.Templates,
		messages:  stores.MessageTemplates,
		groups:    stores.Groups,
		logger:    logger.With(slog.String("repository", models.NotificationTemplateCollection)),
	}
}

// FindByTriggerIdentifier returns the first template in the environment with
// a trigger whose identifier matches, or nil.
func (r *NotificationTemplateRepository) FindByTriggerIdentifier(ctx context.Context, environmentID, identifier string) (*models.NotificationTemplate, error) {
	envID, err := parseID("environmentId", environmentID)
	if err != nil {
		return nil, err
	}

	item, err := r.templates.FindOne(ctx, mongodb.Filter{
		"_environmentId":      envID,
		"triggers.identifier": identifier,
	})
	if err != nil {
		return nil, fmt.Errorf("find by trigger identifier failed: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	if err := r.populateSteps(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID returns the template with the given id if it belongs to the
// organization, or nil.
func (r *NotificationTemplateRepository) FindByID(ctx context.Context, id, organizationID string) (*models.NotificationTemplate, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	orgID, err := parseID("organizationId", organizationID)
	if err != nil {
		return nil, err
	}

	item, err := r.templates.FindOne(ctx, mongodb.Filter{
		"_id":             oid,
		"_organizationId": orgID,
	})
	if err != nil {
		return nil, fmt.Errorf("find by id failed: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	if err := r.populateSteps(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetList returns a page of templates scoped to the organization and
// environment, newest first. TotalCount counts every template in the
// environment regardless of organization.
func (r *NotificationTemplateRepository) GetList(ctx context.Context, organizationID, environmentID string, page pagination.PageRequest) (*pagination.Result[models.NotificationTemplate], error) {
	orgID, err := parseID("organizationId", organizationID)
	if err != nil {
		return nil, err
	}
	envID, err := parseID("environmentId", environmentID)
	if err != nil {
		return nil, err
	}
	page.Normalize()

	totalCount, err := r.templates.Count(ctx, mongodb.Filter{
		"_environmentId": envID,
	})
	if err != nil {
		return nil, fmt.Errorf("count templates failed: %w", err)
	}

	items, err := r.templates.Find(ctx, mongodb.Filter{
		"_environmentId":  envID,
		"_organizationId": orgID,
	}, &mongodb.FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Skip:  page.Skip,
		Limit: page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}

	if err := r.populateGroups(ctx, items); err != nil {
		return nil, err
	}
	return pagination.NewResult(items, totalCount), nil
}

// GetActiveList returns the templates scoped to the organization and
// environment. When active is non-nil only templates with that flag are
// returned. Order is the store's natural order.
func (r *NotificationTemplateRepository) GetActiveList(ctx context.Context, organizationID, environmentID string, active *bool) ([]models.NotificationTemplate, error) {
	orgID, err := parseID("organizationId", organizationID)
	if err != nil {
		return nil, err
	}
	envID, err := parseID("environmentId", environmentID)
	if err != nil {
		return nil, err
	}

	filter := mongodb.Filter{
		"_environmentId":  envID,
		"_organizationId": orgID,
	}
	if active != nil {
		filter["active"] = *active
	}

	items, err := r.templates.Find(ctx, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("list active templates failed: %w", err)
	}
	if items == nil {
		items = []models.NotificationTemplate{}
	}

	if err := r.populateGroups(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete soft-deletes the template with the given id. The mark is scoped to
// the environment the template had when it was looked up. It returns a
// *DalError wrapping ErrNotFound when no live template has the id.
func (r *NotificationTemplateRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID("id", id)
	if err != nil {
		return err
	}

	item, err := r.templates.FindOne(ctx, mongodb.Filter{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete lookup failed: %w", err)
	}
	if item == nil {
		return &DalError{Op: "delete", Entity: notificationTemplateEntity, ID: id, Err: ErrNotFound}
	}

	n, err := r.templates.Delete(ctx, mongodb.Filter{
		"_id":            oid,
		"_environmentId": item.EnvironmentID,
	})
	if err != nil {
		return fmt.Errorf("soft delete failed: %w", err)
	}

	r.logger.DebugContext(ctx, "notification template deleted",
		slog.String("id", id),
		slog.String("environment_id", item.EnvironmentID.Hex()),
		slog.Int64("marked", n),
	)
	return nil
}

// FindDeleted returns the first soft-deleted template matching filter, or nil.
func (r *NotificationTemplateRepository) FindDeleted(ctx context.Context, filter mongodb.Filter) (*models.NotificationTemplate, error) {
	item, err := r.templates.FindDeleted(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find deleted failed: %w", err)
	}
	return item, nil
}

// populateSteps resolves steps[].template with one $in query. Steps whose
// template is missing or deleted keep a nil Template.
func (r *NotificationTemplateRepository) populateSteps(ctx context.Context, item *models.NotificationTemplate) error {
	ids := item.StepTemplateIDs()
	if len(ids) == 0 || r.messages == nil {
		return nil
	}

	messages, err := r.messages.Find(ctx, mongodb.Filter{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return fmt.Errorf("populate step templates failed: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.MessageTemplate, len(messages))
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
	}
	for i := range item.Steps {
		item.Steps[i].Template = byID[item.Steps[i].TemplateID]
	}
	return nil
}

// populateGroups resolves notificationGroup for every item with one $in query.
func (r *NotificationTemplateRepository) populateGroups(ctx context.Context, items []models.NotificationTemplate) error {
	if len(items) == 0 || r.groups == nil {
		return nil
	}

	seen := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		if it.NotificationGroupID.IsZero() {
			continue
		}
		if _, ok := seen[it.NotificationGroupID]; ok {
			continue
		}
		seen[it.NotificationGroupID] = struct{}{}
		ids = append(ids, it.NotificationGroupID)
	}
	if len(ids) == 0 {
		return nil
	}

	groups, err := r.groups.Find(ctx, mongodb.Filter{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return fmt.Errorf("populate notification groups failed: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.NotificationGroup, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}
	for i := range items {
		items[i].NotificationGroup = byID[items[i].NotificationGroupID]
	}
	return nil
}
