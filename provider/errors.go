package provider

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/hupe1980/canonify/resource"
)

// ErrProvider matches every *Error via errors.Is.
var ErrProvider = errors.New("provider error")

// Error reports a provider call that failed after exhausting retries.
type Error struct {
	// Kind is "embed" or "complete".
	Kind     string
	Model    string
	Attempts int
	Err      error
}

// Wrap converts a failure returned by resource.Controller.Do into an *Error.
// It returns nil for a nil err.
func Wrap(kind, model string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	e := &Error{Kind: kind, Model: model, Attempts: 1, Err: err}
	var re *resource.RetryError
	if errors.As(err, &re) {
		e.Attempts = re.Attempts
		e.Err = re.Err
	}
	return e
}

func (e *Error) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("provider %s (model %s) failed after %d attempt(s): %v", e.Kind, e.Model, e.Attempts, e.Err)
	}
	return fmt.Sprintf("provider %s failed after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrProvider.
func (e *Error) Is(target error) bool { return target == ErrProvider }

// StatusError is a non-2xx HTTP response from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

// maxStatusBody bounds the response body kept in a StatusError.
const maxStatusBody = 512

// NewStatusError builds a StatusError from a raw response body. Bodies longer than
// 512 bytes are cut at a rune boundary and suffixed with "...".
func NewStatusError(code int, body []byte) *StatusError {
	if len(body) <= maxStatusBody {
		return &StatusError{StatusCode: code, Body: string(body)}
	}
	n := maxStatusBody
	for n > 0 && !utf8.RuneStart(body[n]) {
		n--
	}
	return &StatusError{StatusCode: code, Body: string(body[:n]) + "..."}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// ErrMalformedResponse is returned when a provider answers with a body that cannot be
// decoded or does not match the request (e.g. a wrong number of embeddings).
var ErrMalformedResponse = errors.New("malformed provider response")
