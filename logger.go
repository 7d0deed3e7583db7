package canonify

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/canonify/canonical"
)

// Logger wraps slog.Logger with canonify-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// LogPass logs the outcome of one pass.
func (l *Logger) LogPass(ctx context.Context, index int, pr *PassResult, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pass failed",
			"pass", index,
			"similarity", pr.SimilarityMethod,
			"clustering", pr.ClusteringMethod,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "pass completed",
		"pass", index,
		"similarity", pr.SimilarityMethod,
		"clustering", pr.ClusteringMethod,
		"canonical", pr.CanonicalStrategy,
		"unique_before", pr.UniqueBefore,
		"unique_after", pr.UniqueAfter,
		"values_changed", pr.ValuesChanged,
		"duration", pr.Duration,
	)
}

// LogColumn logs the outcome of a column run.
func (l *Logger) LogColumn(ctx context.Context, passes, rowsChanged int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "column cleaning aborted",
			"passes_completed", passes,
			"rows_changed", rowsChanged,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "column cleaned",
		"passes", passes,
		"rows_changed", rowsChanged,
	)
}

// LogWarning logs a non-fatal canonical selection issue.
func (l *Logger) LogWarning(ctx context.Context, index int, w canonical.Warning) {
	l.WarnContext(ctx, "canonical selection warning",
		"pass", index,
		"kind", w.Kind,
		"members", w.Members,
		"message", w.Message,
	)
}
