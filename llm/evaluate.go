package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/canonify/provider"
)

// Stats summarises the off-diagonal entries of a similarity matrix.
type Stats struct {
	Min    float64
	Max    float64
	Median float64
}

// EvaluateRequest describes one affinity propagation round.
type EvaluateRequest struct {
	Values     []string
	Groups     [][]int
	Preference float64
	Iteration  int
	Stats      Stats
	Context    string
	Model      string
}

// Evaluation is the model's judgement of a grouping.
type Evaluation struct {
	Satisfactory        bool     `json:"is_satisfactory"`
	NumClusters         int      `json:"num_clusters"`
	Issues              []string `json:"issues"`
	SuggestedPreference float64  `json:"suggested_preference"`
	Reasoning           string   `json:"reasoning"`
}

const evaluateSchema = `{
  "type": "object",
  "properties": {
    "is_satisfactory": {"type": "boolean"},
    "num_clusters": {"type": "integer"},
    "issues": {"type": "array", "items": {"type": "string"}},
    "suggested_preference": {"type": "number"},
    "reasoning": {"type": "string"}
  },
  "required": ["is_satisfactory", "num_clusters", "issues", "suggested_preference", "reasoning"],
  "additionalProperties": false
}`

const evaluateRules = `IMPORTANT RULES:
1. Check if strings for the SAME entity (e.g., "New York" and "NY") are in the same cluster
2. Check if DIFFERENT entities (e.g., "New York" vs "Boston") are in SEPARATE clusters
3. Each distinct real-world entity should have its own cluster

If clustering is wrong, suggest a new preference value:
- Preference must be between -1.0 and 0.0 (cosine similarity scale)
- More negative (e.g., -0.8) -> FEWER, larger clusters
- Less negative (e.g., -0.2) -> MORE, smaller clusters
- If everything is in 1 cluster, try LESS negative (closer to 0)
- If too many clusters, try MORE negative (closer to -1)`

// EvaluateClusters asks the model whether a grouping separates entities correctly.
func (c *Client) EvaluateClusters(ctx context.Context, req EvaluateRequest) (Evaluation, error) {
	var sb strings.Builder
	sb.WriteString("Evaluate these clusters for data cleaning.\n")
	sb.WriteString("Goal: Group strings referring to the SAME entity together, separate DIFFERENT entities.\n")
	if req.Context != "" {
		fmt.Fprintf(&sb, "Context: %s\n", req.Context)
	}
	fmt.Fprintf(&sb, "\nCurrent clustering (iteration %d):\n", req.Iteration)
	for k, g := range req.Groups {
		members := make([]string, len(g))
		for i, idx := range g {
			members[i] = fmt.Sprintf("%q", req.Values[idx])
		}
		fmt.Fprintf(&sb, "Cluster %d: [%s]\n", k, strings.Join(members, ", "))
	}
	fmt.Fprintf(&sb, "\nCurrent preference: %.4f\n", req.Preference)
	fmt.Fprintf(&sb, "Similarity matrix stats: min=%.3f, max=%.3f, median=%.3f\n\n",
		req.Stats.Min, req.Stats.Max, req.Stats.Median)
	sb.WriteString(evaluateRules)

	model := req.Model
	if model == "" {
		model = DefaultChatModel
	}

	var ev Evaluation
	if err := c.complete(ctx, "evaluate_clusters", provider.Request{
		Model:       model,
		User:        sb.String(),
		SchemaName:  "cluster_evaluation",
		Schema:      schema(evaluateSchema),
		Temperature: provider.Float(0),
		Seed:        provider.Int(DefaultSeed),
	}, &ev); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}
