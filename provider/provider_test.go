package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hupe1980/canonify/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("embed", "m", nil))

	cause := errors.New("boom")
	err := Wrap("embed", "text-embedding-3-small", &resource.RetryError{Op: "embed", Attempts: 3, Err: cause})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Attempts)
	assert.Equal(t, "embed", pe.Kind)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "text-embedding-3-small")

	// Already wrapped errors are returned as-is.
	assert.Same(t, pe, Wrap("complete", "x", err).(*Error))
}

func TestStatusError_Temporary(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusRequestTimeout:      true,
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
	} {
		e := &StatusError{StatusCode: code}
		assert.Equal(t, want, e.Temporary(), "status %d", code)
		assert.Equal(t, want, resource.IsTransient(e), "status %d", code)
	}
}

func TestFuncAdapters(t *testing.T) {
	var e Embedder = EmbedderFunc(func(_ context.Context, model string, texts []string) ([][]float32, error) {
		return [][]float32{{float32(len(texts))}}, nil
	})
	vecs, err := e.Embed(context.Background(), "m", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, float32(2), vecs[0][0])

	var c Completer = CompleterFunc(func(_ context.Context, req Request) (string, error) {
		return req.Model + ":" + req.User, nil
	})
	out, err := c.Complete(context.Background(), Request{Model: "m", User: "hi", Temperature: Float(0), Seed: Int(42)})
	require.NoError(t, err)
	assert.Equal(t, "m:hi", out)
}

func TestNewStatusError_TruncatesAtRuneBoundary(t *testing.T) {
	short := NewStatusError(http.StatusBadRequest, []byte("bad request"))
	assert.Equal(t, "bad request", short.Body)

	// 511 ASCII bytes followed by a two-byte rune straddling the limit.
	body := []byte(strings.Repeat("x", 511) + "é" + "tail")
	e := NewStatusError(http.StatusInternalServerError, body)
	assert.True(t, utf8.ValidString(e.Body))
	assert.Equal(t, strings.Repeat("x", 511)+"...", e.Body)
	assert.True(t, e.Temporary())

	long := NewStatusError(http.StatusBadGateway, []byte(strings.Repeat("é", 400)))
	assert.True(t, utf8.ValidString(long.Body))
	assert.Equal(t, strings.Repeat("é", 256)+"...", long.Body)
}
