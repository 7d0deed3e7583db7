// Package ollama implements provider.Embedder and provider.Completer against a local
// Ollama server.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/canonify/codec"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
)

// DefaultHost is used when OLLAMA_HOST is unset.
const DefaultHost = "http://localhost:11434"

var (
	_ provider.Embedder  = (*Client)(nil)
	_ provider.Completer = (*Client)(nil)
)

// Client calls the Ollama HTTP API.
type Client struct {
	host       string
	httpClient *http.Client
	codec      codec.Codec
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCodec sets the JSON codec.
func WithCodec(cd codec.Codec) Option {
	return func(c *Client) { c.codec = codec.OrDefault(cd) }
}

// New creates a client for host. An empty host means DefaultHost.
func New(host string, optFns ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	c := &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		codec:      codec.Default,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// NewFromEnv creates a client for OLLAMA_HOST.
func NewFromEnv(optFns ...Option) *Client {
	return New(os.Getenv("OLLAMA_HOST"), optFns...)
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements provider.Embedder.
func (c *Client) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, resource.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs",
			provider.ErrMalformedResponse, len(resp.Embeddings), len(texts)))
	}
	return resp.Embeddings, nil
}

type generateOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	System  string           `json:"system,omitempty"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Format  any              `json:"format,omitempty"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete implements provider.Completer. A request schema is passed through as the
// structured output format; ReasoningEffort is ignored.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	body := generateRequest{
		Model:  req.Model,
		System: req.System,
		Prompt: req.User,
	}
	if len(req.Schema) > 0 {
		body.Format = req.Schema
	}
	if req.Temperature != nil || req.Seed != nil {
		body.Options = &generateOptions{Temperature: req.Temperature, Seed: req.Seed}
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := c.codec.Marshal(in)
	if err != nil {
		return resource.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return resource.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return provider.NewStatusError(resp.StatusCode, body)
	}

	if err := c.codec.Unmarshal(body, out); err != nil {
		return resource.Permanent(fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err))
	}
	return nil
}
