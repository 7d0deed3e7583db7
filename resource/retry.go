package resource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	// DefaultMaxAttempts is the number of attempts per call, including the first.
	DefaultMaxAttempts = 3
	// DefaultInitialDelay is the wait before the first retry.
	DefaultInitialDelay = 250 * time.Millisecond
	// DefaultMaxDelay caps the backoff.
	DefaultMaxDelay = 5 * time.Second
)

// RetryPolicy configures exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Retryable overrides the transient-error classification.
	Retryable func(error) bool
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

func (p RetryPolicy) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * p.Multiplier)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p RetryPolicy) retryable(ctx context.Context, err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	// The per-call deadline fired while the caller is still waiting.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return true
	}
	return IsTransient(err)
}

// IsTransient reports whether err is worth retrying.
//
// Errors opt in by implementing Temporary() bool (provider status errors do so for
// 429 and 5xx responses). Network timeouts are transient; permanent errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// RetryError is returned by Controller.Do once a call gives up.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }
