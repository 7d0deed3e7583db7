// Package promcollector exports canonify metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := promcollector.New(reg)
//	cleaner := canonify.New(canonify.WithMetricsCollector(mc))
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/canonify"
)

var _ canonify.MetricsCollector = (*Collector)(nil)

// Collector implements canonify.MetricsCollector with Prometheus metrics.
type Collector struct {
	passLatency     *prometheus.HistogramVec
	valuesChanged   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

type options struct {
	namespace string
	buckets   []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace sets the metric name prefix. Defaults to "canonify".
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer, optFns ...Option) (*Collector, error) {
	o := options{
		namespace: "canonify",
		buckets:   prometheus.DefBuckets,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	c := &Collector{
		passLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of cleaning passes",
			Buckets:   o.buckets,
		}, []string{"method", "status"}),
		valuesChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "values_changed_total",
			Help:      "Rows rewritten to a canonical value",
		}, []string{"method"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of embedding and completion requests",
			Buckets:   o.buckets,
		}, []string{"kind", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups",
		}, []string{"result"}),
	}

	for _, m := range []prometheus.Collector{c.passLatency, c.valuesChanged, c.providerLatency, c.cacheLookups} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordPass implements canonify.MetricsCollector.
func (c *Collector) RecordPass(method string, d time.Duration, valuesChanged int, err error) {
	c.passLatency.WithLabelValues(method, status(err)).Observe(d.Seconds())
	c.valuesChanged.WithLabelValues(method).Add(float64(valuesChanged))
}

// RecordProviderCall implements canonify.MetricsCollector.
func (c *Collector) RecordProviderCall(kind string, d time.Duration, err error) {
	c.providerLatency.WithLabelValues(kind, status(err)).Observe(d.Seconds())
}

// RecordCacheLookup implements canonify.MetricsCollector.
func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}
