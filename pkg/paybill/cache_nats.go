package paybill

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL is the NATS server URL, for example nats://127.0.0.1:4222.
	URL string `mapstructure:"url" yaml:"url"`

	// Bucket is the key-value bucket name. Defaults to constants.DefaultNATSBucket.
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// CredentialsFile is an optional NATS user credentials file.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`

	// Timeout bounds the connection attempt.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// NATSKVCache stores cache entries in a JetStream key-value bucket so several
// processes can share fetched resources.
type NATSKVCache struct {
	conn         *nats.Conn
	kv           jetstream.KeyValue
	maxValueSize int
}

// NewNATSKVCache connects to NATS and creates or opens the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig, options *CacheOptions) (*NATSKVCache, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSConfigRequired
	}

	if options == nil {
		options = DefaultCacheOptions()
	}

	natsOpts := []nats.Option{nats.Name("paybill-cache")}
	if config.Timeout > 0 {
		natsOpts = append(natsOpts, nats.Timeout(config.Timeout))
	}

	if config.CredentialsFile != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(config.CredentialsFile))
	}

	conn, err := nats.Connect(config.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open JetStream: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "paybill resource cache",
		TTL:         options.TTL,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open key-value bucket %s: %w", bucket, err)
	}

	maxValueSize := options.MaxValueSize
	if maxValueSize <= 0 {
		maxValueSize = constants.MaxCacheValueSize
	}

	return &NATSKVCache{conn: conn, kv: kv, maxValueSize: maxValueSize}, nil
}

// natsKey maps an arbitrary cache key onto the bucket's key alphabet.
func natsKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Get returns the entry stored under key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("failed to get cache key: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kve.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		_ = c.kv.Delete(ctx, natsKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if len(data) > c.maxValueSize {
		return ErrCacheValueTooLarge
	}

	_, err = c.kv.Put(ctx, natsKey(key), data)
	if err != nil {
		return fmt.Errorf("failed to put cache key: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}

	return nil
}

// Close drains the NATS connection.
func (c *NATSKVCache) Close() error {
	err := c.conn.Drain()
	if err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}
