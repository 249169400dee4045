package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/paybill/internal/auth"
	"github.com/fivetwenty-io/paybill/internal/constants"
	pbhttp "github.com/fivetwenty-io/paybill/internal/http"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// Client implements paybill.Client. It owns one credential session and
// refuses every call until that session is ready.
type Client struct {
	httpClient *pbhttp.Client
	session    *auth.Session
	chain      *paybill.InterceptorChain
	backend    paybill.Cache
	logger     paybill.Logger

	plans    *PlansClient
	products *ProductsClient
}

// Option configures a Client beyond what paybill.Config carries.
type Option func(*options)

type options struct {
	backend paybill.Cache
	clock   auth.Clock
}

// WithCache sets the byte cache backend the resource managers write through to.
func WithCache(backend paybill.Cache) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithClock replaces the clock driving exchange cooldowns and renewals.
func WithClock(clock auth.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *paybill.Config) []pbhttp.Option {
	var httpOpts []pbhttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, pbhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, pbhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, pbhttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, pbhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, pbhttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates an unidentified client. Call Identify before any other call.
func New(config *paybill.Config, opts ...Option) (*Client, error) {
	if config.ClientID == "" {
		return nil, paybill.ErrClientIDRequired
	}

	if config.Secret == "" {
		return nil, paybill.ErrSecretRequired
	}

	baseURL, err := config.ResolveBaseURL()
	if err != nil {
		return nil, fmt.Errorf("resolving base URL: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.backend == nil {
		o.backend = paybill.NewNoOpCache()
	}

	httpClient := pbhttp.NewClient(baseURL, createHTTPClientOptions(config)...)

	// The session owns the exchange retry policy, so the token endpoint gets
	// a transport without retries of its own.
	tokenHTTP := pbhttp.NewClient(baseURL,
		append(createHTTPClientOptions(config), pbhttp.WithRetryConfig(0, time.Millisecond, time.Millisecond))...)

	sessionOpts := []auth.SessionOption{
		auth.WithRetryPolicy(config.Retry),
		auth.WithLogger(config.Logger),
	}
	if o.clock != nil {
		sessionOpts = append(sessionOpts, auth.WithClock(o.clock))
	}

	client := &Client{
		httpClient: httpClient,
		session:    auth.NewSession(auth.NewExchanger(tokenHTTP, config.ClientID, config.Secret), sessionOpts...),
		backend:    o.backend,
		logger:     config.Logger,
	}

	client.chain = client.buildChain(config)

	cacheOptions := paybill.DefaultCacheOptions()
	if config.Cache != nil && config.Cache.Options != nil {
		cacheOptions = config.Cache.Options
	}

	client.plans = NewPlansClient(client, paybill.NewResourceCache[paybill.Plan]("plan", o.backend, cacheOptions, config.CacheEnabled()))
	client.products = NewProductsClient(client, paybill.NewResourceCache[paybill.Product]("product", o.backend, cacheOptions, config.CacheEnabled()))

	return client, nil
}

// buildChain installs the built-in interceptors ahead of the configured ones.
func (c *Client) buildChain(config *paybill.Config) *paybill.InterceptorChain {
	chain := paybill.NewInterceptorChain()

	chain.AddRequestInterceptor(paybill.AuthenticationInterceptor(c.bearerToken))
	chain.AddRequestInterceptor(paybill.HeaderInterceptor(map[string]string{
		constants.HeaderContentType: constants.ContentTypeJSON,
	}))
	chain.AddRequestInterceptor(paybill.RequestIDInterceptor())

	if config.Logger != nil {
		chain.AddRequestInterceptor(paybill.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(paybill.LoggingResponseInterceptor(config.Logger))
	}

	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	return chain
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	token, ok := c.session.Token()
	if !ok {
		return "", paybill.ErrNotReady
	}

	return token, nil
}

// Identify implements paybill.Client.Identify.
func (c *Client) Identify(ctx context.Context) error {
	return c.session.Identify(ctx)
}

// State implements paybill.Client.State.
func (c *Client) State() paybill.SessionState {
	return c.session.State()
}

// Ready implements paybill.Client.Ready.
func (c *Client) Ready() <-chan struct{} {
	return c.session.Ready()
}

// OnReady implements paybill.Client.OnReady.
func (c *Client) OnReady(fn func()) {
	c.session.OnReady(fn)
}

// Request implements paybill.Client.Request. Caller headers are merged under
// the Authorization and Content-Type headers, which always win. The status
// code is left for the caller to interpret.
func (c *Client) Request(
	ctx context.Context,
	method, path string,
	query url.Values,
	headers map[string]string,
	body interface{},
) (*paybill.Response, error) {
	if _, ok := c.session.Token(); !ok {
		return nil, &paybill.NotReadyError{Method: method, Path: path}
	}

	data, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}

	req := &paybill.Request{
		Method:  method,
		Path:    path,
		Headers: make(http.Header),
		Body:    data,
	}

	for key, value := range headers {
		req.Headers.Set(key, value)
	}

	err = c.chain.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		if errors.Is(err, paybill.ErrNotReady) {
			return nil, &paybill.NotReadyError{Method: method, Path: path}
		}

		return nil, err
	}

	httpResp, err := c.httpClient.Do(ctx, &pbhttp.Request{
		Method:  req.Method,
		Path:    req.Path,
		Query:   query,
		Headers: flattenHeaders(req.Headers),
		Body:    req.Body,
	})
	if err != nil {
		_ = c.chain.ExecuteResponseInterceptors(ctx, req, &paybill.Response{Error: err})

		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	resp := &paybill.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Headers,
	}

	if len(httpResp.Body) > 0 && json.Valid(httpResp.Body) {
		resp.Body = httpResp.Body
	}

	err = c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func encodeJSON(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		return data, nil
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key := range headers {
		flat[key] = headers.Get(key)
	}

	return flat
}

// Plans implements paybill.Client.Plans.
func (c *Client) Plans() paybill.PlansClient {
	return c.plans
}

// Products implements paybill.Client.Products.
func (c *Client) Products() paybill.ProductsClient {
	return c.products
}

// Session returns the credential session, for inspection.
func (c *Client) Session() *auth.Session {
	return c.session
}

// Close implements paybill.Client.Close.
func (c *Client) Close() error {
	err := c.session.Close()
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}

	if closer, ok := c.backend.(io.Closer); ok {
		err = closer.Close()
		if err != nil {
			return fmt.Errorf("closing cache: %w", err)
		}
	}

	return nil
}
