package paybill

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/paybill/internal/constants"
)

// Cache is a byte-level cache backend.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
}

// CacheEntry is a cached value with its expiry.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry is past its expiry. A zero ExpiresAt never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// CacheOptions are applied to every backend.
type CacheOptions struct {
	// TTL is how long a resource stays in the shared backend.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// MaxValueSize rejects larger values. Zero means constants.MaxCacheValueSize.
	MaxValueSize int `mapstructure:"max_value_size" yaml:"max_value_size,omitempty"`
}

// DefaultCacheOptions returns the default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		TTL:          constants.DefaultCacheTTL,
		MaxValueSize: constants.MaxCacheValueSize,
	}
}

type memoryItem struct {
	key   string
	entry *CacheEntry
}

// MemoryCache is a size-bounded LRU cache held in process memory.
type MemoryCache struct {
	maxSize  int
	items    map[string]*list.Element
	eviction *list.List
	mu       sync.Mutex
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
// A non-positive maxSize uses constants.DefaultCacheSize.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		maxSize:  maxSize,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Get returns the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	item := elem.Value.(*memoryItem)
	if item.entry.Expired(time.Now()) {
		c.removeElement(elem)

		return nil, ErrCacheEntryExpired
	}

	c.eviction.MoveToFront(elem)

	return item.entry, nil
}

// Set stores entry under key, evicting the least recently used entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if len(entry.Data) > constants.MaxCacheValueSize {
		return ErrCacheValueTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*memoryItem).entry = entry
		c.eviction.MoveToFront(elem)

		return nil
	}

	c.items[key] = c.eviction.PushFront(&memoryItem{key: key, entry: entry})

	if c.eviction.Len() > c.maxSize {
		c.removeElement(c.eviction.Back())
	}

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]

	return ok && !elem.Value.(*memoryItem).entry.Expired(time.Now())
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.eviction.Len()
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	for _, elem := range c.items {
		if elem.Value.(*memoryItem).entry.Expired(now) {
			c.removeElement(elem)
		}
	}
}

// Must be called with lock held.
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*memoryItem).key)
}
