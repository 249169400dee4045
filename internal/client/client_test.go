package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

var errInterceptor = errors.New("interceptor refused")

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *paybill.Config
		wantErr error
	}{
		{
			name:    "missing client id",
			config:  &paybill.Config{Secret: "secret"},
			wantErr: paybill.ErrClientIDRequired,
		},
		{
			name:    "missing secret",
			config:  &paybill.Config{ClientID: "id"},
			wantErr: paybill.ErrSecretRequired,
		},
		{
			name:    "missing environment",
			config:  &paybill.Config{ClientID: "id", Secret: "secret", BaseURL: "http://127.0.0.1:8080"},
			wantErr: paybill.ErrInvalidEnvironment,
		},
		{
			name:    "unknown environment",
			config:  &paybill.Config{ClientID: "id", Secret: "secret", Environment: "staging"},
			wantErr: paybill.ErrInvalidEnvironment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := New(tt.config)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, client)
		})
	}

	t.Run("starts unauthenticated", func(t *testing.T) {
		t.Parallel()

		client, err := New(&paybill.Config{ClientID: "id", Secret: "secret", Environment: "sandbox"})
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		assert.Equal(t, "https://api-m.sandbox.paypal.com", client.httpClient.BaseURL())
		assert.Equal(t, paybill.StateUnauthenticated, client.State())
		assert.NotNil(t, client.Plans())
		assert.NotNil(t, client.Products())
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Request(t *testing.T) {
	t.Parallel()

	t.Run("refuses every call before identification", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		client, err := New(testConfig(platform.server.URL))
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		calls := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/v1/billing/plans"},
			{http.MethodPost, "/v1/billing/plans"},
			{http.MethodPatch, "/v1/billing/plans/P-1"},
			{http.MethodPost, "/v1/billing/plans/P-1/activate"},
			{http.MethodGet, "/v1/catalogs/products"},
			{http.MethodDelete, "/anything"},
		}

		for _, call := range calls {
			resp, err := client.Request(context.Background(), call.method, call.path, nil, nil, nil)
			require.ErrorIs(t, err, paybill.ErrNotReady, "%s %s", call.method, call.path)
			assert.Nil(t, resp)

			var notReady *paybill.NotReadyError
			require.ErrorAs(t, err, &notReady)
			assert.Equal(t, call.method, notReady.Method)
			assert.Equal(t, call.path, notReady.Path)
		}

		_, err = client.Plans().Get(context.Background(), "P-1", false)
		assert.True(t, paybill.IsNotReady(err))

		_, err = client.Products().List(context.Background(), nil)
		assert.True(t, paybill.IsNotReady(err))

		assert.Equal(t, int32(0), platform.apiCalls.Load())
	})

	t.Run("sends bearer token and fixed content type", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("POST /v1/custom", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "custom-value", r.Header.Get("X-Custom"))
			assert.NotEmpty(t, r.Header.Get("PayPal-Request-Id"))
			assert.Equal(t, "v", r.URL.Query().Get("k"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"hello":"world"}`, string(body))

			writeJSON(w, http.StatusCreated, map[string]string{"id": "X-1"})
		})

		client := newIdentifiedClient(t, platform)

		resp, err := client.Request(context.Background(), http.MethodPost, "/v1/custom",
			map[string][]string{"k": {"v"}},
			map[string]string{
				"X-Custom":      "custom-value",
				"Content-Type":  "text/plain",
				"Authorization": "Basic nope",
			},
			map[string]string{"hello": "world"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"id":"X-1"}`, string(resp.Body))
	})

	t.Run("caller request id is kept", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("POST /v1/custom", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "my-request", r.Header.Get("PayPal-Request-Id"))
			w.WriteHeader(http.StatusNoContent)
		})

		client := newIdentifiedClient(t, platform)

		resp, err := client.Request(context.Background(), http.MethodPost, "/v1/custom", nil,
			map[string]string{"PayPal-Request-Id": "my-request"}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Nil(t, resp.Body)
	})

	t.Run("status codes are not interpreted", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("GET /v1/missing", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"name": "RESOURCE_NOT_FOUND"})
		})
		platform.handle("GET /v1/html", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		})

		client := newIdentifiedClient(t, platform)

		resp, err := client.Request(context.Background(), http.MethodGet, "/v1/missing", nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"name":"RESOURCE_NOT_FOUND"}`, string(resp.Body))

		resp, err = client.Request(context.Background(), http.MethodGet, "/v1/html", nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Nil(t, resp.Body)
	})

	t.Run("transport errors are returned", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		client := newIdentifiedClient(t, platform)

		platform.server.Close()

		resp, err := client.Request(context.Background(), http.MethodGet, "/v1/billing/plans", nil, nil, nil)
		require.Error(t, err)
		assert.False(t, paybill.IsNotReady(err))
		assert.Nil(t, resp)
	})

	t.Run("configured interceptors run", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("GET /v1/billing/plans", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tenant-7", r.Header.Get("X-Tenant"))
			writeJSON(w, http.StatusOK, map[string]interface{}{"plans": []interface{}{}})
		})

		var responses atomic.Int32

		client := newIdentifiedClient(t, platform, func(config *paybill.Config) {
			config.RequestInterceptors = []paybill.RequestInterceptor{
				paybill.HeaderInterceptor(map[string]string{"X-Tenant": "tenant-7"}),
			}
			config.ResponseInterceptors = []paybill.ResponseInterceptor{
				func(ctx context.Context, req *paybill.Request, resp *paybill.Response) error {
					responses.Add(1)

					return nil
				},
			}
		})

		_, err := client.Request(context.Background(), http.MethodGet, "/v1/billing/plans", nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(1), responses.Load())
	})

	t.Run("failing interceptor stops the call", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)
		platform.handle("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		client := newIdentifiedClient(t, platform, func(config *paybill.Config) {
			config.RequestInterceptors = []paybill.RequestInterceptor{
				func(ctx context.Context, req *paybill.Request) error { return errInterceptor },
			}
		})

		_, err := client.Request(context.Background(), http.MethodGet, "/v1/billing/plans", nil, nil, nil)
		require.ErrorIs(t, err, errInterceptor)
		assert.Equal(t, int32(0), platform.apiCalls.Load())
	})
}

func TestClient_Identify(t *testing.T) {
	t.Parallel()

	t.Run("clients hold independent sessions", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)

		first := newIdentifiedClient(t, platform)

		second, err := New(testConfig(platform.server.URL))
		require.NoError(t, err)

		defer func() { _ = second.Close() }()

		assert.Equal(t, paybill.StateReady, first.State())
		assert.Equal(t, paybill.StateUnauthenticated, second.State())
		assert.NotSame(t, first.Session(), second.Session())
		assert.False(t, first.Session().ExpiresAt().IsZero())
		assert.True(t, second.Session().ExpiresAt().IsZero())

		_, err = second.Request(context.Background(), http.MethodGet, "/v1/billing/plans", nil, nil, nil)
		require.ErrorIs(t, err, paybill.ErrNotReady)
	})

	t.Run("repeated identify notifies once", func(t *testing.T) {
		t.Parallel()

		platform := newFakePlatform(t)

		client, err := New(testConfig(platform.server.URL))
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		var notified atomic.Int32

		client.OnReady(func() { notified.Add(1) })

		require.NoError(t, client.Identify(context.Background()))
		require.NoError(t, client.Identify(context.Background()))

		<-client.Ready()

		assert.Equal(t, int32(1), notified.Load())
		assert.Equal(t, int32(2), platform.tokenCalls.Load())
	})

	t.Run("rejected credentials exhaust the policy", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := New(testConfig(server.URL))
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		err = client.Identify(context.Background())
		require.ErrorIs(t, err, paybill.ErrAuthentication)
		assert.Equal(t, paybill.StateUnauthenticated, client.State())
	})
}
