package paybill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fivetwenty-io/paybill/internal/constants"
)

// CacheType selects the backend behind the resource caches.
type CacheType string

const (
	// CacheTypeMemory keeps resources in process.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS fronts a NATS JetStream bucket with a process-local memory cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone stores nothing.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures the backend the resource managers write through to.
type CacheConfig struct {
	Type CacheType `mapstructure:"type" yaml:"type"`

	// MaxSize bounds the process-local memory cache. Zero means constants.DefaultCacheSize.
	MaxSize int `mapstructure:"max_size" yaml:"max_size,omitempty"`

	// NATS is required for CacheTypeNATS.
	NATS *NATSKVConfig `mapstructure:"nats" yaml:"nats,omitempty"`

	// Options default to DefaultCacheOptions().
	Options *CacheOptions `mapstructure:"options" yaml:"options,omitempty"`
}

// DefaultCacheConfig is a memory cache of constants.DefaultCacheSize entries.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		MaxSize: constants.DefaultCacheSize,
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig opens the backend config names. A nil config uses
// DefaultCacheConfig.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryCache(config.MaxSize), nil
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		shared, err := NewNATSKVCache(ctx, config.NATS, config.Options)
		if err != nil {
			return nil, err
		}

		return NewLayeredCache(NewMemoryCache(config.MaxSize), shared), nil
	case CacheTypeNone:
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCache, config.Type)
	}
}

// NoOpCache stores nothing. Every lookup fails with ErrCacheDisabled.
type NoOpCache struct{}

// NewNoOpCache returns a cache that stores nothing.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// CacheBuilder assembles a CacheConfig.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from a memory cache with default options.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: &CacheConfig{Type: CacheTypeMemory, Options: DefaultCacheOptions()}}
}

func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

func (b *CacheBuilder) WithMaxSize(maxSize int) *CacheBuilder {
	b.config.MaxSize = maxSize

	return b
}

func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithTTL sets how long resources stay in the shared backend.
func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	if b.config.Options == nil {
		b.config.Options = DefaultCacheOptions()
	}

	b.config.Options.TTL = ttl

	return b
}

// Config returns the assembled configuration for Config.Cache.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// LayeredCache reads a process-local cache before a shared one. Writes and
// deletes go to both; a shared hit is copied into the local cache.
type LayeredCache struct {
	local  Cache
	shared Cache
}

// NewLayeredCache puts local in front of shared.
func NewLayeredCache(local, shared Cache) *LayeredCache {
	return &LayeredCache{local: local, shared: shared}
}

func (c *LayeredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := c.local.Get(ctx, key)
	if err == nil {
		return entry, nil
	}

	entry, err = c.shared.Get(ctx, key)
	if err != nil {
		return nil, ErrCacheKeyNotFound
	}

	_ = c.local.Set(ctx, key, entry)

	return entry, nil
}

func (c *LayeredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return errors.Join(c.local.Set(ctx, key, entry), c.shared.Set(ctx, key, entry))
}

func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.local.Delete(ctx, key), c.shared.Delete(ctx, key))
}

// Close releases whichever layer holds a connection.
func (c *LayeredCache) Close() error {
	var errs []error

	for _, layer := range []Cache{c.local, c.shared} {
		if closer, ok := layer.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}

	return errors.Join(errs...)
}
