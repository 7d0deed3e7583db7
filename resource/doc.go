// Package resource governs calls to external embedding and completion providers.
//
// The Controller combines three limits:
//
//   - Concurrency: a weighted semaphore bounds the calls in flight
//   - Rate: a token bucket keeps the request rate under the provider's quota
//   - Time: every attempt runs under an optional per-call timeout
//
// Transient failures (HTTP 429/5xx, per-call timeouts, network timeouts) are retried
// with exponential backoff:
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentCalls: 8,
//	    RequestsPerSecond:  50,
//	    CallTimeout:        30 * time.Second,
//	    Retry:              resource.RetryPolicy{MaxAttempts: 4},
//	})
//
//	err := rc.Do(ctx, "embed", func(ctx context.Context) error {
//	    vecs, err = client.Embed(ctx, model, batch)
//	    return err
//	})
//
// # Nil Safety
//
// All methods handle a nil Controller: Do runs the function once without limits.
package resource
