package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/ashare-daily/backend/internal/retry"
	"github.com/wonny/ashare-daily/backend/pkg/config"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/metrics"
)

func newTestClient(t *testing.T) (*Client, *metrics.Registry) {
	t.Helper()

	cfg := &config.Config{
		Retry:   config.RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Second, BackoffFactor: 2},
		Sources: config.SourcesConfig{UserAgent: "ashare-test"},
	}

	p := retry.FromConfig(cfg.Retry)
	p.Waiter = retry.WaiterFunc(func(ctx context.Context, d time.Duration) error { return ctx.Err() })

	m := metrics.New()
	c := New(cfg, logger.Nop()).WithPolicy(p).WithMetrics(m).WithLimiter(rate.NewLimiter(rate.Inf, 1))
	return c, m
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ashare-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "https://finance.qq.com", r.Header.Get("Referer"))
		_, _ = w.Write([]byte(`v_sh000001="1~上证指数";`))
	}))
	defer server.Close()

	c, _ := newTestClient(t)
	body, err := c.Get(context.Background(), retry.KindMarket, server.URL, map[string]string{"Referer": "https://finance.qq.com"})

	require.NoError(t, err)
	assert.Contains(t, string(body), "sh000001")
}

func TestGet_RetriesOn5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c, m := newTestClient(t)
	body, err := c.Get(context.Background(), retry.KindFutures, server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchRetries.WithLabelValues("futures")))
}

func TestGet_ExhaustsOnPersistent5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, m := newTestClient(t)
	_, err := c.Get(context.Background(), retry.KindNews, server.URL, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, retry.ErrRetryExhausted))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("news", "exhausted")))

	u, _ := url.Parse(server.URL)
	assert.Equal(t, "open", c.BreakerState(u.Host))
}

func TestGet_OpenBreakerFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var waits []time.Duration
	p := retry.Default()
	p.Waiter = retry.WaiterFunc(func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	})

	c, m := newTestClient(t)
	c.WithPolicy(p)

	// three consecutive 503s trip the host breaker
	_, err := c.Get(context.Background(), retry.KindFutures, server.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, retry.ErrRetryExhausted))
	assert.Len(t, waits, 2)

	u, _ := url.Parse(server.URL)
	require.Equal(t, "open", c.BreakerState(u.Host))

	waits = nil
	for i := 0; i < 10; i++ {
		_, err = c.Get(context.Background(), retry.KindFutures, server.URL, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
		assert.False(t, errors.Is(err, retry.ErrRetryExhausted))
	}

	assert.Empty(t, waits)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("futures", "breaker_open")))
}

func TestGet_NoRetryOn4xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), retry.KindMarket, server.URL, nil)

	require.Error(t, err)
	assert.False(t, errors.Is(err, retry.ErrRetryExhausted))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	u, _ := url.Parse(server.URL)
	assert.Equal(t, "closed", c.BreakerState(u.Host))
}

func TestGet_CallerDeadlineIsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, _ := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, retry.KindMarket, server.URL, nil)
	assert.True(t, errors.Is(err, retry.ErrCancelled))
	assert.False(t, errors.Is(err, retry.ErrRetryExhausted))
}

func TestGet_InvalidURL(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), retry.KindMarket, "://bad", nil)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.code), tt.code)
	}
}
