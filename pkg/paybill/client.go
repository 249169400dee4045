package paybill

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/paybill/internal/constants"
)

// SessionState is the lifecycle state of a client's credential session.
type SessionState string

const (
	// StateUnauthenticated is the state before Identify is called.
	StateUnauthenticated SessionState = "unauthenticated"

	// StateAuthenticating is the state while the first token exchange runs.
	StateAuthenticating SessionState = "authenticating"

	// StateReady is the state once a token is held. It is never left.
	StateReady SessionState = "ready"
)

// Response is the raw result of an authorized request. Body is nil when the
// response had no body or the body was not JSON.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Client is the entry point of the SDK. A Client must be identified before
// any platform call; calls made earlier fail with *NotReadyError.
type Client interface {
	// Identify performs the first credential exchange and schedules renewal.
	// It returns once the session is ready or the retry policy is exhausted.
	Identify(ctx context.Context) error

	// State returns the current session state.
	State() SessionState

	// Ready returns a channel closed when the session first becomes ready.
	Ready() <-chan struct{}

	// OnReady registers fn to run once when the session becomes ready. If the
	// session is already ready fn runs immediately.
	OnReady(fn func())

	// Request performs an authorized call and returns the raw response.
	Request(ctx context.Context, method, path string, query url.Values, headers map[string]string, body interface{}) (*Response, error)

	Plans() PlansClient
	Products() ProductsClient

	// Close stops token renewal and releases cache connections.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// RetryPolicy bounds the credential exchange loop. Each attempt is preceded
// by a wait that starts at Cooldown and grows by Multiplier up to MaxInterval.
// Setting both MaxAttempts and MaxElapsed to zero retries until the context
// is cancelled.
type RetryPolicy struct {
	Cooldown    time.Duration `mapstructure:"cooldown"     yaml:"cooldown"`
	Multiplier  float64       `mapstructure:"multiplier"   yaml:"multiplier"`
	MaxInterval time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	MaxElapsed  time.Duration `mapstructure:"max_elapsed"  yaml:"max_elapsed"`
}

// DefaultRetryPolicy returns the default credential exchange policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Cooldown:    constants.ExchangeCooldown,
		Multiplier:  constants.DefaultExchangeMultiplier,
		MaxInterval: constants.DefaultExchangeMaxInterval,
		MaxAttempts: constants.DefaultExchangeMaxAttempts,
		MaxElapsed:  constants.DefaultExchangeMaxElapsed,
	}
}

// Unbounded reports whether the policy retries until cancelled.
func (p *RetryPolicy) Unbounded() bool {
	return p.MaxAttempts == 0 && p.MaxElapsed == 0
}

// Config represents client configuration for building a paybill.Client.
//
// # Environments
//
// Environment selects the platform host: "live" (the default) or "sandbox".
// BaseURL, when set, overrides the host entirely and is meant for tests and
// proxies. ppclient.New trims a trailing slash from it.
//
// # Credential exchange
//
// ClientID and Secret are exchanged for a bearer token with the OAuth2
// client_credentials grant. The exchange is retried according to Retry; the
// token is renewed three seconds before it expires. A failed renewal keeps
// the previous token and is retried after Retry.MaxInterval.
//
// # Caching
//
// Fetched plans and products are cached unless KeepCache is set to false.
// Repeated fetches of the same id return the same instance. Cache selects the
// backend the instances are written through to; the default is an in-process
// LRU, and a NATS JetStream bucket can be shared between processes.
//
// # Timeouts and retries
//
// Per-request timeouts should be controlled via the context passed to client
// methods. Transport retries for 429, 5xx and connection errors are tuned via
// RetryMax/RetryWaitMin/RetryWaitMax.
type Config struct {
	// Required fields
	// ClientID: REST application client id.
	ClientID string
	// Secret: REST application secret.
	Secret string
	// Environment: "live" or "sandbox".
	Environment string

	// Optional configurations
	// BaseURL: overrides the host selected by Environment.
	BaseURL string
	// KeepCache: caches fetched resources. Nil means true.
	KeepCache *bool
	// Cache: backend for cached resources. Nil uses DefaultCacheConfig().
	Cache *CacheConfig
	// Retry: credential exchange retry policy. Nil uses DefaultRetryPolicy().
	Retry *RetryPolicy
	// HTTPTimeout: timeout of the underlying HTTP client.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of transport retries. If 0, a sensible default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between transport retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between transport retries.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the session and the HTTP layer.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// RequestInterceptors run, in order, after the built-in ones on every authorized request.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run, in order, on every authorized response.
	ResponseInterceptors []ResponseInterceptor
}

// CacheEnabled reports whether fetched resources are cached.
func (c *Config) CacheEnabled() bool {
	return c.KeepCache == nil || *c.KeepCache
}

// ResolveBaseURL returns BaseURL or the host of Environment. Environment must
// name live or sandbox even when BaseURL overrides the host.
func (c *Config) ResolveBaseURL() (string, error) {
	var host string

	switch c.Environment {
	case constants.EnvironmentLive:
		host = constants.LiveBaseURL
	case constants.EnvironmentSandbox:
		host = constants.SandboxBaseURL
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, c.Environment)
	}

	if c.BaseURL != "" {
		return c.BaseURL, nil
	}

	return host, nil
}

// Bool returns a pointer to b, for optional Config fields.
func Bool(b bool) *bool {
	return &b
}
