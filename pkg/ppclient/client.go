// Package ppclient provides the main entry point for creating subscription-billing API clients
package ppclient

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/paybill/internal/client"
	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// New creates an unidentified client from config. It checks the credentials
// and environment and opens the cache backend; no call reaches the platform
// until Identify is called on the returned client. config is not modified.
func New(ctx context.Context, config *paybill.Config) (paybill.Client, error) {
	if config == nil {
		return nil, paybill.ErrConfigRequired
	}

	if config.ClientID == "" {
		return nil, paybill.ErrClientIDRequired
	}

	if config.Secret == "" {
		return nil, paybill.ErrSecretRequired
	}

	normalized := *config
	normalized.Environment = strings.ToLower(strings.TrimSpace(config.Environment))
	normalized.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	if normalized.Environment != constants.EnvironmentLive && normalized.Environment != constants.EnvironmentSandbox {
		return nil, fmt.Errorf("%w: %q", paybill.ErrInvalidEnvironment, config.Environment)
	}

	backend, err := newCache(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	c, err := client.New(&normalized, client.WithCache(backend))
	if err != nil {
		closeCache(backend)

		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// newCache selects the backend the resource managers write through to.
func newCache(ctx context.Context, config *paybill.Config) (paybill.Cache, error) {
	if !config.CacheEnabled() {
		return paybill.NewNoOpCache(), nil
	}

	cache, err := paybill.NewCacheFromConfig(ctx, config.Cache)
	if err != nil {
		return nil, fmt.Errorf("building cache from config: %w", err)
	}

	return cache, nil
}

// closeCache releases a backend that holds a connection, such as NATS.
func closeCache(backend paybill.Cache) {
	if closer, ok := backend.(io.Closer); ok {
		_ = closer.Close()
	}
}

// NewSandbox creates a client for the sandbox environment.
func NewSandbox(ctx context.Context, clientID, secret string) (paybill.Client, error) {
	return New(ctx, &paybill.Config{
		ClientID:    clientID,
		Secret:      secret,
		Environment: constants.EnvironmentSandbox,
	})
}

// NewLive creates a client for the live environment.
func NewLive(ctx context.Context, clientID, secret string) (paybill.Client, error) {
	return New(ctx, &paybill.Config{
		ClientID:    clientID,
		Secret:      secret,
		Environment: constants.EnvironmentLive,
	})
}
