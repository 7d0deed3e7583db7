package canonify

import (
	"log/slog"

	"github.com/hupe1980/canonify/embedcache"
	"github.com/hupe1980/canonify/llm"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
	"github.com/hupe1980/canonify/similarity"
)

// DefaultColumnConcurrency is the number of columns CleanColumns processes at once.
const DefaultColumnConcurrency = 4

// Models are the model identifiers used when a pass does not name one.
type Models struct {
	Embedding string
	Chat      string
}

// DefaultModels returns the built-in model identifiers.
func DefaultModels() Models {
	return Models{
		Embedding: similarity.DefaultEmbeddingModel,
		Chat:      llm.DefaultChatModel,
	}
}

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	embedder          provider.Embedder
	completer         provider.Completer
	cache             embedcache.Cache
	controller        *resource.Controller
	columnConcurrency int
	models            Models
	embedBatchSize    int
}

// Option configures a Cleaner.
type Option func(*options)

// WithLogger configures structured logging for passes and provider retries.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := canonify.NewJSONLogger(slog.LevelInfo)
//	cleaner := canonify.New(canonify.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &canonify.BasicMetricsCollector{}
//	cleaner := canonify.New(canonify.WithMetricsCollector(metrics))
//	// ... clean columns ...
//	stats := metrics.GetStats()
//	fmt.Printf("Passes: %d, rows changed: %d\n", stats.PassCount, stats.ValuesChanged)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithEmbedder sets the provider used by semantic similarity.
func WithEmbedder(e provider.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithCompleter sets the provider used by LLM similarity, LLM canonical selection
// and tuned affinity propagation.
func WithCompleter(c provider.Completer) Option {
	return func(o *options) {
		o.completer = c
	}
}

// WithEmbeddingCache sets a caller-owned embedding cache. Only cache misses are sent
// to the embedder.
func WithEmbeddingCache(c embedcache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithResourceController sets the controller governing provider calls. By default a
// controller with resource.Config defaults is created.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithColumnConcurrency bounds the number of columns CleanColumns processes at once.
func WithColumnConcurrency(n int) Option {
	return func(o *options) {
		o.columnConcurrency = n
	}
}

// WithDefaultModels overrides the models used when a pass does not name one.
// Empty fields keep the built-in defaults.
func WithDefaultModels(m Models) Option {
	return func(o *options) {
		if m.Embedding != "" {
			o.models.Embedding = m.Embedding
		}
		if m.Chat != "" {
			o.models.Chat = m.Chat
		}
	}
}

// WithEmbedBatchSize sets the number of texts per embedding request.
func WithEmbedBatchSize(n int) Option {
	return func(o *options) {
		o.embedBatchSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		columnConcurrency: DefaultColumnConcurrency,
		models:            DefaultModels(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.columnConcurrency <= 0 {
		o.columnConcurrency = DefaultColumnConcurrency
	}
	if o.controller == nil {
		o.controller = resource.NewController(resource.Config{Logger: o.logger.Logger})
	}
	return o
}
