// Package provider defines the external capabilities the cleaner consumes: batch text
// embedding and structured text completion.
//
// Implementations live in sub-packages (openai, ollama). Callers never retry inside an
// implementation; retries, rate limits and timeouts are applied by resource.Controller.
package provider

import (
	"context"
	"encoding/json"
)

// Embedder turns texts into fixed-length vectors.
//
// The returned slice is aligned with texts. Implementations should return unit-length
// vectors; callers normalise anyway.
type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Completer produces a structured completion.
//
// When Request.Schema is set the returned text must be a JSON document valid against
// it; callers still validate the content.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single structured completion call.
type Request struct {
	Model  string
	System string
	User   string

	// SchemaName and Schema describe the expected JSON response.
	SchemaName string
	Schema     json.RawMessage

	// Temperature is applied when non-nil. Reasoning models reject it.
	Temperature *float64
	// Seed requests best-effort deterministic sampling when non-nil.
	Seed *int64
	// ReasoningEffort is forwarded to providers that support it ("low", "medium", "high").
	ReasoningEffort string
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for Request.Seed.
func Int(v int64) *int64 { return &v }

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, model string, texts []string) ([][]float32, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	return f(ctx, model, texts)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
