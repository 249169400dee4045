package paybill_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTokenUnavailable = errors.New("token unavailable")

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := paybill.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *paybill.Request) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *paybill.Request) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	req := &paybill.Request{
		Method: http.MethodGet,
		Path:   "/v1/billing/plans",
	}

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := paybill.NewInterceptorChain()

	var ran bool

	chain.AddRequestInterceptor(paybill.AuthenticationInterceptor(func(ctx context.Context) (string, error) {
		return "", errTokenUnavailable
	}))
	chain.AddRequestInterceptor(func(ctx context.Context, req *paybill.Request) error {
		ran = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &paybill.Request{Method: http.MethodGet})
	require.ErrorIs(t, err, errTokenUnavailable)
	assert.False(t, ran)
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	t.Parallel()

	chain := paybill.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddResponseInterceptor(func(ctx context.Context, req *paybill.Request, resp *paybill.Response) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddResponseInterceptor(func(ctx context.Context, req *paybill.Request, resp *paybill.Response) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	req := &paybill.Request{
		Method: http.MethodGet,
		Path:   "/v1/billing/plans",
	}
	resp := &paybill.Response{
		StatusCode: http.StatusOK,
	}

	err := chain.ExecuteResponseInterceptors(ctx, req, resp)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	headers := map[string]string{
		"X-Custom-Header": "custom-value",
		"Accept-Language": "en_US",
	}

	interceptor := paybill.HeaderInterceptor(headers)
	req := &paybill.Request{
		Method: http.MethodGet,
		Path:   "/v1/catalogs/products",
	}

	err := interceptor(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "custom-value", req.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "en_US", req.Headers.Get("Accept-Language"))
}

func TestAuthenticationInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := paybill.AuthenticationInterceptor(func(ctx context.Context) (string, error) {
		return "test-token", nil
	})

	req := &paybill.Request{
		Method:  http.MethodGet,
		Path:    "/v1/billing/plans",
		Headers: http.Header{"Authorization": []string{"Basic caller"}},
	}

	err := interceptor(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", req.Headers.Get("Authorization"))
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := paybill.RequestIDInterceptor()
	ctx := context.Background()

	post := &paybill.Request{Method: http.MethodPost, Path: "/v1/billing/plans"}
	require.NoError(t, interceptor(ctx, post))
	assert.Len(t, post.Headers.Get("PayPal-Request-Id"), 36)

	kept := &paybill.Request{
		Method:  http.MethodPost,
		Headers: http.Header{"Paypal-Request-Id": []string{"caller-key"}},
	}
	require.NoError(t, interceptor(ctx, kept))
	assert.Equal(t, "caller-key", kept.Headers.Get("PayPal-Request-Id"))

	get := &paybill.Request{Method: http.MethodGet}
	require.NoError(t, interceptor(ctx, get))
	assert.Empty(t, get.Headers.Get("PayPal-Request-Id"))
}

type recordingLogger struct {
	levels []string
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	l.levels = append(l.levels, "debug")
}

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) {
	l.levels = append(l.levels, "info")
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.levels = append(l.levels, "warn")
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.levels = append(l.levels, "error")
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	ctx := context.Background()
	req := &paybill.Request{Method: http.MethodGet, Path: "/v1/billing/plans", Headers: http.Header{}}

	require.NoError(t, paybill.LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, paybill.LoggingResponseInterceptor(logger)(ctx, req, &paybill.Response{StatusCode: http.StatusOK}))
	require.NoError(t, paybill.LoggingResponseInterceptor(logger)(ctx, req, &paybill.Response{StatusCode: http.StatusUnprocessableEntity}))

	assert.Equal(t, []string{"debug", "debug", "warn"}, logger.levels)
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := paybill.NewMetricsCollector()

	var (
		notifiedEndpoint string
		notifiedMetrics  paybill.Metrics
	)

	collector.SetOnChange(func(endpoint string, metrics paybill.Metrics) {
		notifiedEndpoint = endpoint
		notifiedMetrics = metrics
	})

	requestInterceptor := paybill.MetricsRequestInterceptor(collector)
	responseInterceptor := paybill.MetricsResponseInterceptor(collector)

	ctx := context.Background()
	req := &paybill.Request{
		Method: http.MethodGet,
		Path:   "/v1/billing/plans",
	}

	err := requestInterceptor(ctx, req)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	err = responseInterceptor(ctx, req, &paybill.Response{StatusCode: http.StatusOK})
	require.NoError(t, err)

	assert.Equal(t, "GET /v1/billing/plans", notifiedEndpoint)
	assert.Equal(t, int64(1), notifiedMetrics.TotalRequests)
	assert.Equal(t, int64(0), notifiedMetrics.TotalErrors)
	assert.Positive(t, notifiedMetrics.AverageLatency)

	// No start time was recorded for this one.
	req2 := &paybill.Request{
		Method: http.MethodGet,
		Path:   "/v1/billing/plans",
	}

	err = responseInterceptor(ctx, req2, &paybill.Response{StatusCode: http.StatusInternalServerError})
	require.NoError(t, err)

	metrics, ok := collector.GetMetrics("GET /v1/billing/plans")
	require.True(t, ok)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)

	_, ok = collector.GetMetrics("POST /v1/billing/plans")
	assert.False(t, ok)
}
