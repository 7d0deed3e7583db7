package canonify

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the promcollector
// package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordPass is called after each pass with its similarity method, the time
	// taken, the number of rows rewritten and the error, if any.
	RecordPass(method string, duration time.Duration, valuesChanged int, err error)

	// RecordProviderCall is called after each embedding or completion request.
	// kind is "embed" or the completion operation name.
	RecordProviderCall(kind string, duration time.Duration, err error)

	// RecordCacheLookup is called for every embedding cache lookup.
	RecordCacheLookup(hit bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPass(string, time.Duration, int, error)    {}
func (NoopMetricsCollector) RecordProviderCall(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordCacheLookup(bool)                          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PassCount          atomic.Int64
	PassErrors         atomic.Int64
	PassTotalNanos     atomic.Int64
	ValuesChanged      atomic.Int64
	ProviderCalls      atomic.Int64
	ProviderErrors     atomic.Int64
	ProviderTotalNanos atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(_ string, duration time.Duration, valuesChanged int, err error) {
	b.PassCount.Add(1)
	b.PassTotalNanos.Add(duration.Nanoseconds())
	b.ValuesChanged.Add(int64(valuesChanged))
	if err != nil {
		b.PassErrors.Add(1)
	}
}

// RecordProviderCall implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProviderCall(_ string, duration time.Duration, err error) {
	b.ProviderCalls.Add(1)
	b.ProviderTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ProviderErrors.Add(1)
	}
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PassCount:        b.PassCount.Load(),
		PassErrors:       b.PassErrors.Load(),
		PassAvgNanos:     avg(b.PassTotalNanos.Load(), b.PassCount.Load()),
		ValuesChanged:    b.ValuesChanged.Load(),
		ProviderCalls:    b.ProviderCalls.Load(),
		ProviderErrors:   b.ProviderErrors.Load(),
		ProviderAvgNanos: avg(b.ProviderTotalNanos.Load(), b.ProviderCalls.Load()),
		CacheHits:        b.CacheHits.Load(),
		CacheMisses:      b.CacheMisses.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PassCount        int64
	PassErrors       int64
	PassAvgNanos     int64
	ValuesChanged    int64
	ProviderCalls    int64
	ProviderErrors   int64
	ProviderAvgNanos int64
	CacheHits        int64
	CacheMisses      int64
}
