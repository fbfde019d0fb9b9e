package retry

import (
	"errors"
	"fmt"
)

var (
	// ErrRetryExhausted matches every *ExhaustedError
	ErrRetryExhausted = errors.New("retry exhausted")

	// ErrCancelled matches every *CancelledError
	ErrCancelled = errors.New("retry cancelled")

	// ErrTransient marks a failure the default classifier retries
	ErrTransient = errors.New("transient failure")
)

// ExhaustedError is returned after MaxAttempts retryable failures
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last underlying failure
func (e *ExhaustedError) Unwrap() error { return e.Last }

// Is matches ErrRetryExhausted
func (e *ExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// CancelledError is returned when the caller's context ends before the
// operation succeeds. It is never reported as exhaustion.
type CancelledError struct {
	Attempts int   // attempts made before cancellation
	Last     error // last operation failure, nil if none ran
	Cause    error // context error
}

func (e *CancelledError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("retry cancelled after %d attempts: %v (last: %v)", e.Attempts, e.Cause, e.Last)
	}
	return fmt.Sprintf("retry cancelled after %d attempts: %v", e.Attempts, e.Cause)
}

// Unwrap exposes both the context error and the last failure
func (e *CancelledError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.Last != nil {
		errs = append(errs, e.Last)
	}
	return errs
}

// Is matches ErrCancelled
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

type transientError struct{ err error }

func (e *transientError) Error() string        { return e.err.Error() }
func (e *transientError) Unwrap() error        { return e.err }
func (e *transientError) Is(target error) bool { return target == ErrTransient }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient marks err as retryable regardless of its kind
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Permanent marks err as never retryable, overriding any transient cause
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
