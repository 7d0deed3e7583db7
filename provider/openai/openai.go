// Package openai implements provider.Embedder and provider.Completer for the OpenAI
// API and compatible servers.
//
// # Usage
//
//	client, err := openai.NewFromEnv() // OPENAI_API_KEY, optional OPENAI_BASE_URL
//	cleaner := canonify.New(
//	    canonify.WithEmbedder(client),
//	    canonify.WithCompleter(client),
//	)
//
// Structured completions use the json_schema response format, so the model's answer is
// constrained to the schema the llm package sends.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/canonify/codec"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Compile time checks.
var (
	_ provider.Embedder  = (*Client)(nil)
	_ provider.Completer = (*Client)(nil)
)

// ErrMissingAPIKey is returned by NewFromEnv when OPENAI_API_KEY is unset.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Client talks to the OpenAI REST API.
type Client struct {
	baseURL      string
	apiKey       string
	organization string
	httpClient   *http.Client
	codec        codec.Codec
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a compatible server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOrganization sets the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func(c *Client) { c.organization = org }
}

// WithCodec sets the JSON codec used for requests and responses.
func WithCodec(cd codec.Codec) Option {
	return func(c *Client) { c.codec = codec.OrDefault(cd) }
}

// New creates a client with the given API key.
func New(apiKey string, optFns ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		codec:      codec.Default,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// NewFromEnv creates a client from OPENAI_API_KEY and the optional OPENAI_BASE_URL.
func NewFromEnv(optFns ...Option) (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		optFns = append([]Option{WithBaseURL(base)}, optFns...)
	}
	return New(key, optFns...), nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements provider.Embedder.
func (c *Client) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", embeddingRequest{Model: model, Input: texts}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, resource.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs",
			provider.ErrMalformedResponse, len(resp.Data), len(texts)))
	}

	// The API documents input order, but the index field is authoritative.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		if d.Index != i {
			return nil, resource.Permanent(fmt.Errorf("%w: embedding index %d out of order",
				provider.ErrMalformedResponse, d.Index))
		}
		out[i] = d.Embedding
	}
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchema struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Strict bool   `json:"strict"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model           string          `json:"model"`
	Messages        []chatMessage   `json:"messages"`
	Temperature     *float64        `json:"temperature,omitempty"`
	Seed            *int64          `json:"seed,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
	ResponseFormat  *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements provider.Completer.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	body := chatRequest{
		Model:           req.Model,
		Temperature:     req.Temperature,
		Seed:            req.Seed,
		ReasoningEffort: req.ReasoningEffort,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})

	if len(req.Schema) > 0 {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		body.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: name, Schema: req.Schema, Strict: true},
		}
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", resource.Permanent(fmt.Errorf("%w: no choices", provider.ErrMalformedResponse))
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", resource.Permanent(fmt.Errorf("model refused: %s", msg.Refusal))
	}
	return msg.Content, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := c.codec.Marshal(in)
	if err != nil {
		return resource.Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return resource.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return provider.NewStatusError(resp.StatusCode, body)
	}

	if err := c.codec.Unmarshal(body, out); err != nil {
		return resource.Permanent(fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err))
	}
	return nil
}
