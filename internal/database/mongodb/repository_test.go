package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bargom/notifydal/internal/database/models"
)

func TestRepository_SoftDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	RunWithTestContainer(t, "test_soft_delete", func(t *testing.T, client *Client) {
		repo := NewRepository[models.NotificationTemplate](client, models.NotificationTemplateCollection, nil, WithSoftDelete())
		ctx := context.Background()

		org := primitive.NewObjectID()
		env := primitive.NewObjectID()

		tpl := models.NewNotificationTemplate("welcome", org, env)
		tpl.AddTrigger("user-signup")
		id, err := repo.InsertOne(ctx, tpl)
		require.NoError(t, err)
		assert.Equal(t, tpl.ID.Hex(), id)

		t.Run("FindOne by hex id", func(t *testing.T) {
			found, err := repo.FindOne(ctx, Filter{"_id": id})
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "welcome", found.Name)
			assert.False(t, found.Deleted)
		})

		t.Run("FindOne by trigger path", func(t *testing.T) {
			found, err := repo.FindOne(ctx, Filter{"_environmentId": env, "triggers.identifier": "user-signup"})
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, tpl.ID, found.ID)
		})

		t.Run("FindOne no match returns nil", func(t *testing.T) {
			found, err := repo.FindOne(ctx, Filter{"name": "missing"})
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("Delete marks record", func(t *testing.T) {
			n, err := repo.Delete(ctx, Filter{"_id": tpl.ID, "_environmentId": env})
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			found, err := repo.FindOne(ctx, Filter{"_id": id})
			require.NoError(t, err)
			assert.Nil(t, found)

			count, err := repo.Count(ctx, Filter{"_environmentId": env})
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)

			raw, err := repo.Collection().CountDocuments(ctx, bson.M{"_id": tpl.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), raw)
		})

		t.Run("Delete twice marks nothing", func(t *testing.T) {
			n, err := repo.Delete(ctx, Filter{"_id": tpl.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)
		})

		t.Run("FindDeleted", func(t *testing.T) {
			found, err := repo.FindDeleted(ctx, Filter{"_id": id})
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.True(t, found.Deleted)
			require.NotNil(t, found.DeletedAt)
			assert.WithinDuration(t, time.Now(), *found.DeletedAt, time.Minute)
		})
	})
}

func TestRepository_FindOptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	RunWithTestContainer(t, "test_find_options", func(t *testing.T, client *Client) {
		repo := NewRepository[models.NotificationTemplate](client, models.NotificationTemplateCollection, nil, WithSoftDelete())
		ctx := context.Background()

		org := primitive.NewObjectID()
		env := primitive.NewObjectID()
		base := time.Now().UTC().Truncate(time.Millisecond)

		for i, name := range []string{"first", "second", "third"} {
			tpl := models.NewNotificationTemplate(name, org, env)
			tpl.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			_, err := repo.InsertOne(ctx, tpl)
			require.NoError(t, err)
		}

		items, err := repo.Find(ctx, Filter{"_environmentId": env}, &FindOptions{
			Sort:  bson.D{{Key: "createdAt", Value: -1}},
			Skip:  1,
			Limit: 1,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "second", items[0].Name)

		empty, err := repo.Find(ctx, Filter{"_environmentId": primitive.NewObjectID()}, nil)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})
}

func TestRepository_HardDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	RunWithTestContainer(t, "test_hard_delete", func(t *testing.T, client *Client) {
		repo := NewRepository[models.NotificationGroup](client, models.NotificationGroupCollection, nil)
		ctx := context.Background()

		group := models.NewNotificationGroup("General", primitive.NewObjectID(), primitive.NewObjectID())
		_, err := repo.InsertOne(ctx, group)
		require.NoError(t, err)

		n, err := repo.Delete(ctx, Filter{"_id": group.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		deleted, err := repo.FindDeleted(ctx, Filter{"_id": group.ID})
		require.NoError(t, err)
		assert.Nil(t, deleted)
	})
}

func TestRepository_DuplicateKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	RunWithTestContainer(t, "test_duplicate_key", func(t *testing.T, client *Client) {
		repo := NewRepository[models.MessageTemplate](client, models.MessageTemplateCollection, nil)
		ctx := context.Background()

		msg := models.NewMessageTemplate("email", "Hello", primitive.NewObjectID(), primitive.NewObjectID())
		_, err := repo.InsertOne(ctx, msg)
		require.NoError(t, err)

		_, err = repo.InsertOne(ctx, msg)
		require.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestRepository_ClosedClient(t *testing.T) {
	client := &Client{closed: true}
	repo := &Repository[models.NotificationTemplate]{client: client, collName: "closed"}
	ctx := context.Background()

	_, err := repo.FindOne(ctx, Filter{})
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = repo.Find(ctx, Filter{}, nil)
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = repo.Count(ctx, Filter{})
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = repo.Delete(ctx, Filter{})
	assert.ErrorIs(t, err, ErrClientClosed)

	_, err = repo.FindDeleted(ctx, Filter{})
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestNotDeleted(t *testing.T) {
	soft := &Repository[models.NotificationTemplate]{softDelete: true}
	hard := &Repository[models.NotificationTemplate]{}

	t.Run("adds marker when soft delete is on", func(t *testing.T) {
		result := soft.notDeleted(Filter{"name": "a"})
		assert.Equal(t, bson.M{"name": "a", FieldDeleted: bson.M{"$ne": true}}, result)
	})

	t.Run("keeps caller marker", func(t *testing.T) {
		result := soft.notDeleted(Filter{FieldDeleted: true})
		assert.Equal(t, bson.M{FieldDeleted: true}, result)
	})

	t.Run("no marker without soft delete", func(t *testing.T) {
		result := hard.notDeleted(Filter{"name": "a"})
		assert.Equal(t, bson.M{"name": "a"}, result)
	})
}

func TestTranslateFilter(t *testing.T) {
	t.Run("nil filter", func(t *testing.T) {
		result := TranslateFilter(nil)
		assert.Equal(t, bson.M{}, result)
	})

	t.Run("simple filter", func(t *testing.T) {
		result := TranslateFilter(Filter{"name": "test"})
		assert.Equal(t, bson.M{"name": "test"}, result)
	})

	t.Run("_id with valid ObjectID string", func(t *testing.T) {
		oid := primitive.NewObjectID()
		result := TranslateFilter(Filter{"_id": oid.Hex()})
		assert.Equal(t, bson.M{"_id": oid}, result)
	})

	t.Run("_id with invalid ObjectID string", func(t *testing.T) {
		result := TranslateFilter(Filter{"_id": "not-an-objectid"})
		assert.Equal(t, bson.M{"_id": "not-an-objectid"}, result)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		oid := primitive.NewObjectID()
		in := Filter{"_id": oid.Hex()}
		_ = TranslateFilter(in)
		assert.Equal(t, oid.Hex(), in["_id"])
	})
}

func TestFormatID(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), formatID(oid))
	assert.Equal(t, "custom-id", formatID("custom-id"))
	assert.Equal(t, "123", formatID(123))
}
