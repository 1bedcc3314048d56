package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// MemoryCache is a process-local Cache. Entries are kept in least recently
// used order and evicted from the tail once MaxMemory or MaxItems would be
// exceeded. Expired entries are dropped lazily on read and by a background
// sweep.
type MemoryCache struct {
	cfg Config
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	bytes   int64
	hits    int64
	misses  int64

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) size() int64 { return int64(len(e.value)) }

func (e *memoryEntry) expired(now time.Time) bool { return now.After(e.expiresAt) }

// NewMemoryCache creates an in-memory cache and starts its expiry sweep.
// Close stops the sweep.
func NewMemoryCache(cfg Config) *MemoryCache {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	c := &MemoryCache{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		stop:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *MemoryCache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes every expired entry.
func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).expired(now) {
			c.remove(elem)
		}
		elem = prev
	}
}

// remove unlinks elem. Callers hold mu.
func (c *MemoryCache) remove(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
	c.bytes -= entry.size()
}

// fits reports whether one more entry of size bytes stays within the limits.
func (c *MemoryCache) fits(size int64) bool {
	if c.cfg.MaxMemory > 0 && c.bytes+size > c.cfg.MaxMemory {
		return false
	}
	if c.cfg.MaxItems > 0 && c.order.Len() >= c.cfg.MaxItems {
		return false
	}
	return true
}

// Get returns a copy of the stored value, or ErrCacheMiss.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if ok && elem.Value.(*memoryEntry).expired(c.now()) {
		c.remove(elem)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, ErrCacheMiss
	}

	c.order.MoveToFront(elem)
	c.hits++
	return append([]byte(nil), elem.Value.(*memoryEntry).value...), nil
}

// Set stores a copy of value. A zero ttl uses DefaultTTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.cfg.DefaultTTL
	}
	entry := &memoryEntry{
		key:   key,
		value: append([]byte(nil), value...),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
	for c.order.Len() > 0 && !c.fits(entry.size()) {
		c.remove(c.order.Back())
	}

	entry.expiresAt = c.now().Add(ttl)
	c.entries[key] = c.order.PushFront(entry)
	c.bytes += entry.size()
	return nil
}

// Delete removes keys. Unknown keys are ignored.
func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if elem, ok := c.entries[key]; ok {
			c.remove(elem)
		}
	}
	return nil
}

// GetJSON reads key and decodes it into dest.
func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func (c *MemoryCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// DeletePattern removes every key matching the glob pattern. Matching
// follows path.Match, so "*" never crosses a "/".
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.entries {
		if matched, _ := path.Match(pattern, key); matched {
			c.remove(elem)
		}
	}
	return nil
}

// Close stops the sweep and drops every entry. It is safe to call twice.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.Clear()
	return nil
}

// Health always returns nil for memory cache.
func (c *MemoryCache) Health(ctx context.Context) error {
	return nil
}

// Stats returns hit and miss counts along with current occupancy.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Keys:       int64(len(c.entries)),
		MemoryUsed: c.bytes,
	}
}

// Clear removes all entries. Counters are kept.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.bytes = 0
}
