package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/ashare-daily/backend/internal/retry"
	"github.com/wonny/ashare-daily/backend/pkg/config"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/metrics"
)

// maxBodyBytes caps a single upstream response
const maxBodyBytes = 8 << 20

// StatusError is a non-2xx upstream response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is worth retrying
func (e *StatusError) Retryable() bool {
	return IsRetryableError(e.StatusCode)
}

// Client is an HTTP client wrapper with retry, rate limiting and circuit breaking
// ⭐ SSOT: 모든 외부 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.Registry
	policy     retry.Policy
	limiter    *rate.Limiter
	userAgent  string

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	rps := cfg.Sources.RequestsPerSec
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 2 * time.Minute, // hard ceiling; per-attempt timeouts come from the retry preset
		},
		logger:    log,
		policy:    retry.FromConfig(cfg.Retry),
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.Sources.UserAgent,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// WithPolicy replaces the base retry policy (presets are applied per request)
func (c *Client) WithPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

// WithMetrics attaches a metrics registry
func (c *Client) WithMetrics(m *metrics.Registry) *Client {
	c.metrics = m
	return c
}

// WithLimiter replaces the request rate limiter
func (c *Client) WithLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// Get fetches url under the retry preset for kind and returns the body.
// Each attempt is bounded by the preset's timeout hint.
func (c *Client) Get(ctx context.Context, kind retry.Kind, target string, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", target, err)
	}

	policy := c.policy.For(kind)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.metrics.ObserveRetry(string(kind))
		c.logger.WithFields(map[string]interface{}{
			"kind":    kind,
			"attempt": attempt,
			"delay":   delay.String(),
			"url":     target,
		}).WithError(err).Warn("Retrying HTTP request")
	}

	breaker := c.breaker(u.Host)
	start := time.Now()

	body, err := retry.DoValue(ctx, policy, func(ctx context.Context) ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		defer cancel()

		out, err := breaker.Execute(func() (interface{}, error) {
			return c.fetch(attemptCtx, target, headers)
		})
		// an open breaker stays open for longer than any backoff; fail fast
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, retry.Permanent(fmt.Errorf("%s: %w", u.Host, err))
		}
		if err != nil {
			return nil, err
		}
		return out.([]byte), nil
	})

	duration := time.Since(start)
	c.metrics.ObserveFetch(string(kind), duration.Seconds(), err)

	if err != nil {
		c.metrics.ObserveFetchError(string(kind), errorClass(err))
		c.logger.WithFields(map[string]interface{}{
			"kind":     kind,
			"url":      target,
			"duration": duration.String(),
		}).WithError(err).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"kind":     kind,
		"url":      target,
		"bytes":    len(body),
		"duration": duration.String(),
	}).Debug("HTTP request completed")

	return body, nil
}

// fetch performs one attempt and classifies its failure
func (c *Client) fetch(ctx context.Context, target string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create GET request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		se := &StatusError{StatusCode: resp.StatusCode, URL: target}
		if se.Retryable() {
			return nil, retry.Transient(se)
		}
		return nil, retry.Permanent(se)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// breaker returns the per-host circuit breaker.
// Trips on 3 consecutive failures or >5% failures over at least 20 requests.
func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	st := gobreaker.Settings{
		Name:     host,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		// client-side errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && !se.Retryable())
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"host": name,
				"from": from.String(),
				"to":   to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	cb := gobreaker.NewCircuitBreaker(st)
	c.breakers[host] = cb
	return cb
}

// BreakerState reports the breaker state for host ("closed" if unused)
func (c *Client) BreakerState(host string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb.State().String()
	}
	return gobreaker.StateClosed.String()
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, retry.ErrCancelled):
		return "cancelled"
	case errors.Is(err, retry.ErrRetryExhausted):
		return "exhausted"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "permanent"
	}
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
