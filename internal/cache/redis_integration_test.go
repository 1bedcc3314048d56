//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisContainer(t *testing.T) *RedisCache {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	connStr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	cache, err := NewRedisCache(Config{
		Type:       TypeRedis,
		URL:        connStr,
		DefaultTTL: time.Minute,
		Prefix:     "test",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close()
		_ = redisContainer.Terminate(ctx)
	})

	return cache
}

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cache := setupRedisContainer(t)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		require.NoError(t, cache.Health(ctx))
	})

	t.Run("json round trip", func(t *testing.T) {
		require.NoError(t, cache.SetJSON(ctx, "templates:id:org:a", map[string]string{"name": "welcome"}, 0))

		var out map[string]string
		require.NoError(t, cache.GetJSON(ctx, "templates:id:org:a", &out))
		assert.Equal(t, "welcome", out["name"])
	})

	t.Run("delete pattern", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "templates:trigger:env:a", []byte("1"), 0))
		require.NoError(t, cache.DeletePattern(ctx, "templates:*"))

		_, err := cache.Get(ctx, "templates:id:org:a")
		assert.ErrorIs(t, err, ErrCacheMiss)
		_, err = cache.Get(ctx, "templates:trigger:env:a")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("ttl", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
		time.Sleep(1500 * time.Millisecond)

		_, err := cache.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
