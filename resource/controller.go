package resource

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds limits for calls to external providers.
type Config struct {
	// MaxConcurrentCalls is the maximum number of provider calls in flight.
	// If 0, defaults to 4.
	MaxConcurrentCalls int64

	// RequestsPerSecond caps the request rate across all callers sharing the
	// controller. If 0, unlimited.
	RequestsPerSecond float64

	// Burst is the token bucket size. If 0, defaults to ceil(RequestsPerSecond).
	Burst int

	// CallTimeout bounds a single attempt. If 0, only the caller's context applies.
	CallTimeout time.Duration

	// Retry configures backoff for transient failures.
	Retry RetryPolicy

	// Logger receives retry diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Controller governs calls to embedding and completion providers: it bounds
// concurrency, rate-limits requests, applies a per-call timeout and retries
// transient failures with exponential backoff.
type Controller struct {
	cfg Config

	callSem *semaphore.Weighted
	limiter *rate.Limiter // nil if unlimited
	logger  *slog.Logger

	inFlight atomic.Int64
	calls    atomic.Int64
	retries  atomic.Int64
}

// NewController creates a new call controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 4
	}
	cfg.Retry = cfg.Retry.withDefaults()

	c := &Controller{
		cfg:     cfg,
		callSem: semaphore.NewWeighted(cfg.MaxConcurrentCalls),
		logger:  cfg.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(math.Ceil(cfg.RequestsPerSecond))
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c
}

// Do runs fn under the controller's limits, retrying transient failures.
//
// op names the operation in logs and errors. When all attempts fail the returned
// error is a *RetryError carrying the attempt count and the last failure.
//
// A nil Controller runs fn exactly once with ctx.
func (c *Controller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if c == nil {
		return fn(ctx)
	}

	policy := c.cfg.Retry
	delay := policy.InitialDelay

	for attempt := 1; ; attempt++ {
		err := c.once(ctx, fn)
		if err == nil {
			return nil
		}

		if attempt >= policy.MaxAttempts || ctx.Err() != nil || !policy.retryable(ctx, err) {
			return &RetryError{Op: op, Attempts: attempt, Err: err}
		}

		c.retries.Add(1)
		c.logger.DebugContext(ctx, "retrying provider call",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &RetryError{Op: op, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}

		delay = policy.next(delay)
	}
}

func (c *Controller) once(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.callSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.callSem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	callCtx := ctx
	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	c.calls.Add(1)
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	return fn(callCtx)
}

// InFlight returns the number of calls currently executing.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Stats returns the number of attempts made and how many of them were retries.
func (c *Controller) Stats() (calls, retries int64) {
	if c == nil {
		return 0, 0
	}
	return c.calls.Load(), c.retries.Load()
}

// MaxConcurrentCalls returns the configured concurrency bound.
func (c *Controller) MaxConcurrentCalls() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxConcurrentCalls)
}
