package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TypeMemory, cfg.Type)
	assert.Equal(t, 5*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, "notifydal", cfg.Prefix)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, int64(64*1024*1024), cfg.MaxMemory)
	assert.Equal(t, 10000, cfg.MaxItems)
}

func TestNew(t *testing.T) {
	t.Run("memory cache", func(t *testing.T) {
		cache, err := New(DefaultConfig())
		require.NoError(t, err)
		defer cache.Close()

		_, ok := cache.(*MemoryCache)
		assert.True(t, ok)
	})

	t.Run("empty type defaults to memory", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = ""

		cache, err := New(cfg)
		require.NoError(t, err)
		defer cache.Close()

		_, ok := cache.(*MemoryCache)
		assert.True(t, ok)
	})

	t.Run("none", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = TypeNone

		cache, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, NoopCache{}, cache)
	})

	t.Run("redis", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = TypeRedis
		cfg.URL = "redis://localhost:6379/0"

		cache, err := New(cfg)
		require.NoError(t, err)
		defer cache.Close()

		_, ok := cache.(*RedisCache)
		assert.True(t, ok)
	})

	t.Run("unsupported type", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = "memcached"

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported cache type")
	})
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NoopCache{}

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	var dest map[string]string
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &dest), ErrCacheMiss)
	assert.NoError(t, c.Health(ctx))
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		err := cache.Set(ctx, "key1", []byte("value1"), 0)
		require.NoError(t, err)

		data, err := cache.Get(ctx, "key1")
		require.NoError(t, err)
		assert.Equal(t, []byte("value1"), data)
	})

	t.Run("get miss", func(t *testing.T) {
		data, err := cache.Get(ctx, "nonexistent")
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.Nil(t, data)
	})

	t.Run("delete several keys", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "key2", []byte("value2"), 0))
		require.NoError(t, cache.Set(ctx, "key3", []byte("value3"), 0))

		require.NoError(t, cache.Delete(ctx, "key2", "key3", "missing"))

		_, err := cache.Get(ctx, "key2")
		assert.ErrorIs(t, err, ErrCacheMiss)
		_, err = cache.Get(ctx, "key3")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "copy", []byte("abc"), 0))
		data, err := cache.Get(ctx, "copy")
		require.NoError(t, err)
		data[0] = 'x'

		again, err := cache.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})
}

func TestMemoryCache_TTL(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, cache.Set(ctx, "default", []byte("v"), 0))

	now = now.Add(2 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = cache.Get(ctx, "default")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	cache.cleanup()
	assert.Equal(t, int64(0), cache.Stats().Keys)
}

func TestMemoryCache_JSON(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	type template struct {
		Name     string   `json:"name"`
		Triggers []string `json:"triggers"`
	}

	in := template{Name: "welcome", Triggers: []string{"user-signup"}}
	require.NoError(t, cache.SetJSON(ctx, "tpl", in, 0))

	var out template
	require.NoError(t, cache.GetJSON(ctx, "tpl", &out))
	assert.Equal(t, in, out)

	require.NoError(t, cache.Set(ctx, "bad", []byte("{not json"), 0))
	err := cache.GetJSON(ctx, "bad", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json unmarshal")
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "templates:id:org1:a", []byte("1"), 0)
	_ = cache.Set(ctx, "templates:id:org2:a", []byte("2"), 0)
	_ = cache.Set(ctx, "templates:trigger:env1:signup", []byte("3"), 0)

	require.NoError(t, cache.DeletePattern(ctx, "templates:id:*:a"))

	_, err := cache.Get(ctx, "templates:id:org1:a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, "templates:id:org2:a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, "templates:trigger:env1:signup")
	assert.NoError(t, err)

	err = cache.DeletePattern(ctx, "[")
	assert.Error(t, err)

	empty := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer empty.Close()
	assert.Error(t, empty.DeletePattern(ctx, "["), "bad pattern is rejected with no keys stored")
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(Config{
		DefaultTTL: time.Minute,
		MaxMemory:  100,
	})
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "lru1", make([]byte, 40), 0)
	_ = cache.Set(ctx, "lru2", make([]byte, 40), 0)

	// lru1 becomes most recently used.
	_, _ = cache.Get(ctx, "lru1")

	_ = cache.Set(ctx, "lru3", make([]byte, 40), 0)

	_, err := cache.Get(ctx, "lru2")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = cache.Get(ctx, "lru1")
	require.NoError(t, err)
}

func TestMemoryCache_MaxItems(t *testing.T) {
	cache := NewMemoryCache(Config{
		DefaultTTL: time.Minute,
		MaxItems:   2,
	})
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "item1", []byte("v1"), 0)
	_ = cache.Set(ctx, "item2", []byte("v2"), 0)
	_ = cache.Set(ctx, "item3", []byte("v3"), 0)

	assert.Equal(t, int64(2), cache.Stats().Keys)
	_, err := cache.Get(ctx, "item1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "stat1", []byte("value"), 0)
	_, _ = cache.Get(ctx, "stat1")
	_, _ = cache.Get(ctx, "stat1")
	_, _ = cache.Get(ctx, "nonexistent")

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Keys)
	assert.Equal(t, int64(5), stats.MemoryUsed)
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "clear1", []byte("v1"), 0)
	_ = cache.Set(ctx, "clear2", []byte("v2"), 0)

	cache.Clear()

	stats := cache.Stats()
	assert.Equal(t, int64(0), stats.Keys)
	assert.Equal(t, int64(0), stats.MemoryUsed)
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute})

	_ = cache.Set(context.Background(), "close1", []byte("v1"), 0)

	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())
	assert.NoError(t, cache.Health(context.Background()))
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(Config{DefaultTTL: time.Minute, MaxItems: 50})
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune('a' + (n+j)%26))
				_ = cache.Set(ctx, key, []byte("v"), 0)
				_, _ = cache.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Stats().Keys, int64(26))
}
