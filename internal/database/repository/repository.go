package repository

import (
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/database/memory"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned when an id is not a valid ObjectID.
var ErrInvalidID = errors.New("invalid id")

// DalError is a data-access failure tied to a specific record id.
type DalError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *DalError) Error() string {
	if errors.Is(e.Err, ErrNotFound) {
		return fmt.Sprintf("could not find %s with id %s", e.Entity, e.ID)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *DalError) Unwrap() error {
	return e.Err
}

// NewMongoStores builds soft-delete-aware stores over the client's database.
func NewMongoStores(client *mongodb.Client, logger *slog.Logger) Stores {
	return Stores{
		Templates: mongodb.NewRepository[models.NotificationTemplate](
			client, models.NotificationTemplateCollection, logger, mongodb.WithSoftDelete()),
		MessageTemplates: mongodb.NewRepository[models.MessageTemplate](
			client, models.MessageTemplateCollection, logger, mongodb.WithSoftDelete()),
		Groups: mongodb.NewRepository[models.NotificationGroup](
			client, models.NotificationGroupCollection, logger),
	}
}

// MemoryStores is an in-process Stores with access to the concrete stores
// for seeding.
type MemoryStores struct {
	Templates        *memory.Store[models.NotificationTemplate]
	MessageTemplates *memory.Store[models.MessageTemplate]
	Groups           *memory.Store[models.NotificationGroup]
}

// NewMemoryStores builds empty in-process stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		Templates:        memory.NewStore[models.NotificationTemplate](memory.WithSoftDelete()),
		MessageTemplates: memory.NewStore[models.MessageTemplate](memory.WithSoftDelete()),
		Groups:           memory.NewStore[models.NotificationGroup](),
	}
}

// Stores returns the interface view of the memory stores.
func (m *MemoryStores) Stores() Stores {
	return Stores{
		Templates:        m.Templates,
		MessageTemplates: m.MessageTemplates,
		Groups:           m.Groups,
	}
}

func parseID(field, id string) (primitive.ObjectID, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s %q", ErrInvalidID, field, id)
	}
	return oid, nil
}
