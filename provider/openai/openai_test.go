package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("sk-test", WithBaseURL(srv.URL))
}

func TestClient_Embed(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, []string{"NYC", "Boston"}, req.Input)

		// Deliberately out of order.
		_, _ = io.WriteString(w, `{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`)
	})

	vecs, err := client.Embed(context.Background(), "text-embedding-3-small", []string{"NYC", "Boston"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestClient_Embed_CountMismatch(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"index":0,"embedding":[1]}]}`)
	})

	_, err := client.Embed(context.Background(), "m", []string{"a", "b"})
	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
	assert.False(t, resource.IsTransient(err))
}

func TestClient_Embed_Empty(t *testing.T) {
	client := New("k", WithBaseURL("http://127.0.0.1:0"))
	vecs, err := client.Embed(context.Background(), "m", nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestClient_Complete(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4.1-mini", req["model"])
		assert.Equal(t, float64(0), req["temperature"])
		assert.Equal(t, float64(42), req["seed"])

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

		rf := req["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", rf["type"])
		assert.Equal(t, "canonical_selection", rf["json_schema"].(map[string]any)["name"])

		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"index\":2}"}}]}`)
	})

	out, err := client.Complete(context.Background(), provider.Request{
		Model:       "gpt-4.1-mini",
		System:      "pick one",
		User:        "1. NYC\n2. New York\n",
		SchemaName:  "canonical_selection",
		Schema:      json.RawMessage(`{"type":"object"}`),
		Temperature: provider.Float(0),
		Seed:        provider.Int(42),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"index":2}`, out)
}

func TestClient_Complete_Refusal(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"","refusal":"no"}}]}`)
	})

	_, err := client.Complete(context.Background(), provider.Request{Model: "m", User: "u"})
	assert.Error(t, err)
	assert.False(t, resource.IsTransient(err))
}

func TestClient_StatusErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":"slow down"}`)
	})

	_, err := client.Complete(context.Background(), provider.Request{Model: "m", User: "u"})
	var se *provider.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, resource.IsTransient(err))

	status = http.StatusUnauthorized
	_, err = client.Complete(context.Background(), provider.Request{Model: "m", User: "u"})
	assert.False(t, resource.IsTransient(err))
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1/")
	c, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", c.baseURL)
	assert.Equal(t, "sk-env", c.apiKey)
}
