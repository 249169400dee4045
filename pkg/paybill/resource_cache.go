package paybill

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// CacheStats counts resource cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns hits over total lookups, or 0 without lookups.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// ResourceCache keeps one live instance per id so repeated fetches return the
// same object. Instances are also written to a byte-level backend so another
// process sharing the backend can skip the platform round-trip.
type ResourceCache[T any] struct {
	prefix  string
	backend Cache
	ttl     time.Duration
	enabled bool

	mu    sync.RWMutex
	items map[string]*T

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewResourceCache creates a cache for one resource kind. A nil backend keeps
// instances in process only. A disabled cache never stores anything.
func NewResourceCache[T any](prefix string, backend Cache, options *CacheOptions, enabled bool) *ResourceCache[T] {
	if options == nil {
		options = DefaultCacheOptions()
	}

	if backend == nil {
		backend = NewNoOpCache()
	}

	return &ResourceCache[T]{
		prefix:  prefix,
		backend: backend,
		ttl:     options.TTL,
		enabled: enabled,
		items:   make(map[string]*T),
	}
}

// Enabled reports whether the cache stores anything.
func (c *ResourceCache[T]) Enabled() bool {
	return c.enabled
}

func (c *ResourceCache[T]) key(id string) string {
	return c.prefix + ":" + id
}

// Get returns the cached instance for id. Instances restored from the backend
// are kept so later lookups return the same pointer.
func (c *ResourceCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)

		return item, true
	}

	entry, err := c.backend.Get(ctx, c.key(id))
	if err != nil {
		c.misses.Add(1)

		return nil, false
	}

	restored := new(T)

	err = json.Unmarshal(entry.Data, restored)
	if err != nil {
		c.misses.Add(1)

		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have stored an instance meanwhile.
	if existing, ok := c.items[id]; ok {
		restored = existing
	} else {
		c.items[id] = restored
	}

	c.hits.Add(1)

	return restored, true
}

// Put stores item under id, replacing any previous instance.
func (c *ResourceCache[T]) Put(ctx context.Context, id string, item *T) {
	if !c.enabled || item == nil {
		return
	}

	c.mu.Lock()
	c.items[id] = item
	c.mu.Unlock()

	c.sets.Add(1)
	c.writeThrough(ctx, id, item)
}

// Modify applies fn to the live instance of id and rewrites the backend copy
// from it. Without a live instance the backend copy is dropped instead, so
// the next lookup refetches. It reports whether a live instance was changed.
func (c *ResourceCache[T]) Modify(ctx context.Context, id string, fn func(*T)) bool {
	if !c.enabled {
		return false
	}

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()

	if !ok {
		_ = c.backend.Delete(ctx, c.key(id))

		return false
	}

	fn(item)
	c.writeThrough(ctx, id, item)

	return true
}

func (c *ResourceCache[T]) writeThrough(ctx context.Context, id string, item *T) {
	data, err := json.Marshal(item)
	if err != nil {
		return
	}

	_ = c.backend.Set(ctx, c.key(id), &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	})
}

// Delete removes id from the process and the backend.
func (c *ResourceCache[T]) Delete(ctx context.Context, id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()

	_ = c.backend.Delete(ctx, c.key(id))
}

// Len returns the number of live instances.
func (c *ResourceCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns a snapshot of the lookup counters.
func (c *ResourceCache[T]) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}
