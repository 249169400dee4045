package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

const testToken = "A21AAFEpH4PsADK7"

// fakePlatform is an httptest server that answers the token endpoint and
// routes every other call to registered handlers after checking the bearer token.
type fakePlatform struct {
	t          *testing.T
	server     *httptest.Server
	mux        *http.ServeMux
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32

	mu       sync.Mutex
	requests []*http.Request
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	platform := &fakePlatform{t: t, mux: http.NewServeMux()}

	platform.mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		platform.tokenCalls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": testToken,
			"token_type":   "Bearer",
			"expires_in":   32400,
		})
	})

	platform.server = httptest.NewServer(platform.mux)
	t.Cleanup(platform.server.Close)

	return platform
}

// handle registers handler for pattern behind a bearer token check.
func (p *fakePlatform) handle(pattern string, handler http.HandlerFunc) {
	p.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		p.apiCalls.Add(1)

		p.mu.Lock()
		p.requests = append(p.requests, r.Clone(context.Background()))
		p.mu.Unlock()

		assert.Equal(p.t, "Bearer "+testToken, r.Header.Get("Authorization"))

		handler(w, r)
	})
}

func (p *fakePlatform) lastRequest() *http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.requests) == 0 {
		return nil
	}

	return p.requests[len(p.requests)-1]
}

func testConfig(baseURL string) *paybill.Config {
	return &paybill.Config{
		ClientID:    "client-id",
		Secret:      "client-secret",
		Environment: "sandbox",
		BaseURL:     baseURL,
		Retry: &paybill.RetryPolicy{
			Cooldown:    time.Millisecond,
			Multiplier:  2,
			MaxInterval: 5 * time.Millisecond,
			MaxAttempts: 3,
		},
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	}
}

// newIdentifiedClient creates a client for the platform and identifies it.
func newIdentifiedClient(t *testing.T, platform *fakePlatform, configure ...func(*paybill.Config)) *Client {
	t.Helper()

	config := testConfig(platform.server.URL)
	for _, fn := range configure {
		fn(config)
	}

	client, err := New(config, WithCache(paybill.NewMemoryCache(100)))
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Identify(context.Background()))

	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func planJSON(id, status string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"product_id": "PROD-6XB24663H4094933M",
		"name":       "Basic Plan " + id,
		"status":     status,
		"usage_type": "LICENSED",
		"billing_cycles": []map[string]interface{}{
			{
				"frequency":    map[string]interface{}{"interval_unit": "MONTH", "interval_count": 1},
				"tenure_type":  "REGULAR",
				"sequence":     1,
				"total_cycles": 12,
				"pricing_scheme": map[string]interface{}{
					"version":     1,
					"fixed_price": map[string]string{"currency_code": "USD", "value": "10.00"},
				},
			},
		},
		"payment_preferences": map[string]interface{}{
			"auto_bill_outstanding":     true,
			"payment_failure_threshold": 3,
		},
		"create_time": "2020-04-03T15:35:36Z",
	}
}

func productJSON(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        "Video Streaming Service",
		"description": "Video streaming service",
		"type":        "SERVICE",
		"category":    "SOFTWARE",
		"create_time": "2020-04-03T15:35:36Z",
	}
}
