package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/canonify/provider"
)

// CanonicalRequest describes one cluster.
type CanonicalRequest struct {
	Members []string
	// Context is the column name or a domain description.
	Context string
	Model   string
}

type selectResponse struct {
	Index int `json:"index"`
}

type proposeResponse struct {
	Canonical string `json:"canonical"`
	Reasoning string `json:"reasoning"`
}

const selectSchema = `{
  "type": "object",
  "properties": {
    "index": {"type": "integer", "minimum": 1}
  },
  "required": ["index"],
  "additionalProperties": false
}`

const proposeSchema = `{
  "type": "object",
  "properties": {
    "canonical": {"type": "string"},
    "reasoning": {"type": "string"}
  },
  "required": ["canonical", "reasoning"],
  "additionalProperties": false
}`

func numbered(members []string) string {
	var sb strings.Builder
	for i, v := range members {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, v)
	}
	return sb.String()
}

func (r CanonicalRequest) model() string {
	if r.Model != "" {
		return r.Model
	}
	return DefaultChatModel
}

// SelectCanonical asks the model to pick one member and returns its zero-based index
// as answered. The index is not range checked; callers decide how to fall back.
func (c *Client) SelectCanonical(ctx context.Context, req CanonicalRequest) (int, error) {
	system := "Select the best canonical name from the list and return its number.\n\n" +
		"Consider: correct spelling, completeness, readability, standard format, proper casing."
	if req.Context != "" {
		system += "\n\nValues are from column: " + req.Context
	}

	var resp selectResponse
	if err := c.complete(ctx, "select_canonical", provider.Request{
		Model:       req.model(),
		System:      system,
		User:        numbered(req.Members),
		SchemaName:  "canonical_selection",
		Schema:      schema(selectSchema),
		Temperature: provider.Float(0),
		Seed:        provider.Int(DefaultSeed),
	}, &resp); err != nil {
		return 0, err
	}
	return resp.Index - 1, nil
}

// ProposeCanonical asks the model for the standard form of a cluster. The answer may
// be a string that is not a member.
func (c *Client) ProposeCanonical(ctx context.Context, req CanonicalRequest) (string, error) {
	system := "These values all refer to the same thing. Choose the most appropriate canonical (standard) form.\n\n" +
		"Choose the form that is:\n" +
		"1. Most complete and descriptive (prefer \"New York\" over \"NYC\")\n" +
		"2. Properly capitalized\n" +
		"3. Most commonly accepted/official spelling\n\n" +
		"Return ONE canonical form. If the values include a full name and abbreviations, prefer the full name."
	if req.Context != "" {
		system += "\n\nContext: " + req.Context
	}

	var resp proposeResponse
	if err := c.complete(ctx, "propose_canonical", provider.Request{
		Model:       req.model(),
		System:      system,
		User:        numbered(req.Members),
		SchemaName:  "canonical_name",
		Schema:      schema(proposeSchema),
		Temperature: provider.Float(0),
		Seed:        provider.Int(DefaultSeed),
	}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Canonical), nil
}
