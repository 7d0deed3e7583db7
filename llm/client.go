// Package llm builds prompts and response schemas for every language-model feature of
// the cleaner and validates what comes back.
//
// A Client wraps a provider.Completer. Every call goes through the optional
// resource.Controller (concurrency, rate limit, retries) and is decoded with a
// codec.Codec; provider failures surface as *provider.Error.
//
// Features:
//   - ScorePairs: pairwise similarity in strict, fast and reliable modes
//   - Group: direct partition of a value list
//   - SelectCanonical / ProposeCanonical: canonical name per cluster
//   - EvaluateClusters: judge an affinity-propagation grouping and suggest a preference
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/canonify/codec"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
)

// DefaultChatModel is used for canonical selection, grouping and cluster evaluation
// when the caller does not name a model.
const DefaultChatModel = "gpt-4.1-mini"

// DefaultSeed is sent with every request.
const DefaultSeed int64 = 42

// Observer is notified after every provider call.
type Observer func(kind string, d time.Duration, err error)

// Client issues structured completions.
type Client struct {
	completer  provider.Completer
	controller *resource.Controller
	codec      codec.Codec
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithController routes calls through a resource controller.
func WithController(rc *resource.Controller) Option {
	return func(c *Client) { c.controller = rc }
}

// WithCodec sets the codec used to decode responses.
func WithCodec(cd codec.Codec) Option {
	return func(c *Client) { c.codec = codec.OrDefault(cd) }
}

// WithObserver registers a callback invoked after each call.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a Client.
func NewClient(completer provider.Completer, optFns ...Option) *Client {
	c := &Client{
		completer: completer,
		codec:     codec.Default,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// Controller returns the resource controller (may be nil).
func (c *Client) Controller() *resource.Controller { return c.controller }

// complete sends req and decodes the JSON answer into out.
func (c *Client) complete(ctx context.Context, op string, req provider.Request, out any) error {
	start := time.Now()

	err := c.controller.Do(ctx, op, func(ctx context.Context) error {
		text, err := c.completer.Complete(ctx, req)
		if err != nil {
			return err
		}
		raw, err := ExtractJSON(text)
		if err != nil {
			return resource.Permanent(err)
		}
		if err := c.codec.Unmarshal(raw, out); err != nil {
			return resource.Permanent(fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err))
		}
		return nil
	})
	err = provider.Wrap("complete", req.Model, err)

	if c.observer != nil {
		c.observer("complete", time.Since(start), err)
	}
	return err
}

func schema(s string) json.RawMessage { return json.RawMessage(s) }
