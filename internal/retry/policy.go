// Package retry provides a bounded exponential-backoff policy for fallible I/O.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/wonny/ashare-daily/backend/pkg/config"
)

// Op is one attempt of the unit of work
type Op func(ctx context.Context) error

// Waiter sleeps between attempts and must return early with ctx.Err() when ctx ends
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// WaiterFunc adapts a function to Waiter
type WaiterFunc func(ctx context.Context, d time.Duration) error

// Wait implements Waiter
func (f WaiterFunc) Wait(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerWaiter struct{}

func (timerWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy configures retries. The zero value of each field falls back to the
// default; a Policy is a value and safe to share.
// ⭐ SSOT: 재시도/백오프 규칙은 이 타입으로만 정의
type Policy struct {
	MaxAttempts   int           // default 3
	BaseDelay     time.Duration // default 10s
	BackoffFactor float64       // default 2.0
	MaxDelay      time.Duration // 0 = uncapped

	// Timeout is a per-attempt hint for the I/O layer; the loop itself ignores it
	Timeout time.Duration

	// Retryable selects retryable failures (default IsTransient)
	Retryable func(error) bool

	// Waiter defaults to a context-aware timer
	Waiter Waiter

	// OnRetry is called before each wait
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Defaults
const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 10 * time.Second
	DefaultBackoffFactor = 2.0
)

// Default returns the default policy (3 attempts, 10s, ×2)
func Default() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// FromConfig builds a policy from environment configuration
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		BackoffFactor: cfg.BackoffFactor,
		MaxDelay:      cfg.MaxDelay,
	}.normalized()
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = DefaultBackoffFactor
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	if p.Waiter == nil {
		p.Waiter = timerWaiter{}
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based):
// BaseDelay * BackoffFactor^(attempt-1), capped at MaxDelay when set.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if d > math.MaxInt64 {
		d = math.MaxInt64
	}
	delay := time.Duration(d)

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op, retrying retryable failures, and blocks until it succeeds,
// fails permanently, exhausts its attempts or ctx ends.
//
// Results:
//   - nil on success
//   - the op's error unchanged when it is not retryable
//   - *ExhaustedError wrapping the last failure after MaxAttempts
//   - *CancelledError when ctx ends before success
func (p Policy) Do(ctx context.Context, op Op) error {
	p = p.normalized()

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return &CancelledError{Attempts: attempt - 1, Last: last, Cause: err}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return &CancelledError{Attempts: attempt, Last: last, Cause: ctxErr}
		}
		if !p.Retryable(err) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return &ExhaustedError{Attempts: attempt, Last: last}
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if werr := p.Waiter.Wait(ctx, delay); werr != nil {
			cause := ctx.Err()
			if cause == nil {
				cause = werr
			}
			return &CancelledError{Attempts: attempt, Last: last, Cause: cause}
		}
	}
}

// Task is a retried operation running in its own goroutine
type Task struct {
	done chan struct{}
	err  error
}

// Start runs op under the policy without blocking the caller.
// Semantics are identical to Do; cancel ctx to abort a pending wait.
func (p Policy) Start(ctx context.Context, op Op) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = p.Do(ctx, op)
	}()
	return t
}

// Done is closed when the task finishes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its result
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Err returns the result once Done is closed, nil before
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// DoValue is Do for operations producing a value
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
