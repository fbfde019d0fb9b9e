package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/ashare-daily/backend/pkg/config"
)

// recordingWaiter records requested delays without sleeping
type recordingWaiter struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *recordingWaiter) Wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *recordingWaiter) Delays() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}

func newPolicy(w Waiter) Policy {
	p := Default()
	p.Waiter = w
	return p
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0

	err := newPolicy(w).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Delays())
}

func TestDo_ExhaustsWithBackoff(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0
	boom := Transient(errors.New("connection reset"))

	err := newPolicy(w).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, w.Delays())

	assert.True(t, errors.Is(err, ErrRetryExhausted))
	assert.False(t, errors.Is(err, ErrCancelled))
	assert.True(t, errors.Is(err, boom))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0

	err := newPolicy(w).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return io.ErrUnexpectedEOF
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, w.Delays(), 2)
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0
	bad := errors.New("parse error")

	err := newPolicy(w).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return bad
	})

	assert.Same(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Delays())
}

func TestDo_PermanentOverridesTransient(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0

	err := newPolicy(w).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(Transient(errors.New("http 404")))
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRetryExhausted))
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.Delays())
}

func TestDo_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	p := Default()
	p.Waiter = WaiterFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		return Transient(errors.New("timeout"))
	})

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrRetryExhausted))

	var cancelled *CancelledError
	require.True(t, errors.As(err, &cancelled))
	assert.Equal(t, 1, cancelled.Attempts)
	assert.Error(t, cancelled.Last)
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Default().Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, 0, calls)
}

func TestDo_RealTimerWaitIsCancellable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Default().Do(ctx, func(ctx context.Context) error {
		return Transient(errors.New("unavailable"))
	})

	assert.True(t, errors.Is(err, ErrCancelled))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDo_OnRetryHook(t *testing.T) {
	var attempts []int
	p := newPolicy(&recordingWaiter{})
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		attempts = append(attempts, attempt)
	}

	_ = p.Do(context.Background(), func(ctx context.Context) error {
		return ErrTransient
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestStart_SameSemanticsAsDo(t *testing.T) {
	w := &recordingWaiter{}
	calls := 0

	task := newPolicy(w).Start(context.Background(), func(ctx context.Context) error {
		calls++
		return ErrTransient
	})

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}

	err := task.Wait()
	assert.True(t, errors.Is(err, ErrRetryExhausted))
	assert.Equal(t, err, task.Err())
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, w.Delays())
}

func TestStart_CancelPendingWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	waiting := make(chan struct{})

	p := Default()
	p.Waiter = WaiterFunc(func(ctx context.Context, d time.Duration) error {
		close(waiting)
		<-ctx.Done()
		return ctx.Err()
	})

	task := p.Start(ctx, func(ctx context.Context) error { return ErrTransient })
	<-waiting
	cancel()

	assert.True(t, errors.Is(task.Wait(), ErrCancelled))
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), newPolicy(&recordingWaiter{}), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, ErrTransient
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDelay(t *testing.T) {
	p := Default()
	assert.Equal(t, 10*time.Second, p.Delay(1))
	assert.Equal(t, 20*time.Second, p.Delay(2))
	assert.Equal(t, 40*time.Second, p.Delay(3))

	p.MaxDelay = 15 * time.Second
	assert.Equal(t, 15*time.Second, p.Delay(2))
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, BackoffFactor: 3})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 9*time.Second, p.Delay(3))

	p = FromConfig(config.RetryConfig{})
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultBaseDelay, p.BaseDelay)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 15*time.Second, Preset(KindMarket).Timeout)
	assert.Equal(t, 60*time.Second, Preset(KindFutures).Timeout)
	assert.Equal(t, 20*time.Second, Preset(KindNews).Timeout)
	assert.Equal(t, 15*time.Second, Preset(Kind("macro")).Timeout)

	// presets only change the timeout hint
	p := Preset(KindFutures)
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultBaseDelay, p.BaseDelay)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad input"), false},
		{"marked", Transient(errors.New("x")), true},
		{"sentinel wrapped", fmt.Errorf("fetch: %w", ErrTransient), true},
		{"permanent", Permanent(ErrTransient), false},
		{"unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{"conn reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"conn refused errno", syscall.ECONNREFUSED, true},
		{"net timeout", timeoutErr{}, true},
		{"attempt deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"dial dns not found", &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "bad.invalid", IsNotFound: true}}, false},
		{"dial dns timeout", &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
