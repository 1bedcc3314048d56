package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/cache"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/internal/database/setup"
)

// storageFixture shares one in-process connection across the commands of a
// test and records the options each command opened storage with.
type storageFixture struct {
	stores *repository.MemoryStores
	org    primitive.ObjectID
	env    primitive.ObjectID
	opened []setup.Options
}

func useMemoryStorage(t *testing.T) *storageFixture {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("CACHE_TYPE", "none")

	conn, err := setup.Open(context.Background(), setup.Options{
		Backend: setup.BackendMemory,
		Cache:   cache.Config{Type: cache.TypeNone},
	})
	require.NoError(t, err)

	f := &storageFixture{
		stores: conn.MemoryStores(),
		org:    primitive.NewObjectID(),
		env:    primitive.NewObjectID(),
	}

	prev := openStorage
	openStorage = func(_ context.Context, opts setup.Options) (*setup.Connection, error) {
		f.opened = append(f.opened, opts)
		return conn, nil
	}
	t.Cleanup(func() { openStorage = prev })

	return f
}

func (f *storageFixture) seed(t *testing.T, name, trigger string, active bool) *models.NotificationTemplate {
	t.Helper()
	ctx := context.Background()

	msg := &models.MessageTemplate{
		ID:             primitive.NewObjectID(),
		Type:           "email",
		Content:        "Hello from " + name,
		EnvironmentID:  f.env,
		OrganizationID: f.org,
	}
	_, err := f.stores.MessageTemplates.InsertOne(ctx, msg)
	require.NoError(t, err)

	tmpl := models.NewNotificationTemplate(name, f.org, f.env)
	tmpl.Active = active
	tmpl.Triggers = []models.NotificationTrigger{{
		Type:       models.TriggerTypeEvent,
		Identifier: trigger,
		Variables:  []models.TriggerVariable{},
	}}
	tmpl.Steps = []models.NotificationStep{{
		ID:         primitive.NewObjectID(),
		TemplateID: msg.ID,
		Active:     true,
	}}
	_, err = f.stores.Templates.InsertOne(ctx, tmpl)
	require.NoError(t, err)
	return tmpl
}
