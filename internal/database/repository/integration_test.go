package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/internal/pagination"
)

func TestNotificationTemplateRepository_Mongo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	mongodb.RunWithTestContainer(t, "test_notification_templates", func(t *testing.T, client *mongodb.Client) {
		ctx := context.Background()
		repo := repository.NewNotificationTemplateRepository(repository.NewMongoStores(client, nil), nil)

		org1 := primitive.NewObjectID()
		org2 := primitive.NewObjectID()
		env1 := primitive.NewObjectID()

		group := models.NewNotificationGroup("General", org1, env1)
		_, err := client.Collection(models.NotificationGroupCollection).InsertOne(ctx, group)
		require.NoError(t, err)

		msg := models.NewMessageTemplate("email", "Welcome!", org1, env1)
		_, err = client.Collection(models.MessageTemplateCollection).InsertOne(ctx, msg)
		require.NoError(t, err)

		base := time.Now().UTC().Truncate(time.Millisecond)
		insert := func(name string, org primitive.ObjectID, active bool, offset time.Duration) *models.NotificationTemplate {
			tpl := models.NewNotificationTemplate(name, org, env1)
			tpl.Active = active
			tpl.CreatedAt = base.Add(offset)
			tpl.NotificationGroupID = group.ID
			tpl.AddTrigger(name + "-event")
			tpl.AddStep(msg.ID)
			_, err := client.Collection(models.NotificationTemplateCollection).InsertOne(ctx, tpl)
			require.NoError(t, err)
			return tpl
		}

		a := insert("a", org1, true, 0)
		b := insert("b", org1, false, time.Second)
		insert("c", org2, true, 2*time.Second)

		t.Run("find by trigger identifier populates steps", func(t *testing.T) {
			found, err := repo.FindByTriggerIdentifier(ctx, env1.Hex(), "a-event")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, a.ID, found.ID)
			require.NotNil(t, found.Steps[0].Template)
			assert.Equal(t, "Welcome!", found.Steps[0].Template.Content)
		})

		t.Run("find by id is organization scoped", func(t *testing.T) {
			found, err := repo.FindByID(ctx, a.ID.Hex(), org1.Hex())
			require.NoError(t, err)
			require.NotNil(t, found)

			found, err = repo.FindByID(ctx, a.ID.Hex(), org2.Hex())
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("get list", func(t *testing.T) {
			page, err := repo.GetList(ctx, org1.Hex(), env1.Hex(), pagination.DefaultPageRequest())
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.TotalCount)
			require.Len(t, page.Data, 2)
			assert.Equal(t, b.ID, page.Data[0].ID)
			require.NotNil(t, page.Data[0].NotificationGroup)
			assert.Equal(t, "General", page.Data[0].NotificationGroup.Name)
		})

		t.Run("get active list", func(t *testing.T) {
			active := true
			items, err := repo.GetActiveList(ctx, org1.Hex(), env1.Hex(), &active)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, a.ID, items[0].ID)
		})

		t.Run("delete and find deleted", func(t *testing.T) {
			require.NoError(t, repo.Delete(ctx, a.ID.Hex()))

			found, err := repo.FindByID(ctx, a.ID.Hex(), org1.Hex())
			require.NoError(t, err)
			assert.Nil(t, found)

			deleted, err := repo.FindDeleted(ctx, mongodb.Filter{"_id": a.ID.Hex()})
			require.NoError(t, err)
			require.NotNil(t, deleted)
			assert.True(t, deleted.Deleted)

			err = repo.Delete(ctx, a.ID.Hex())
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.Contains(t, err.Error(), a.ID.Hex())
		})
	})
}
