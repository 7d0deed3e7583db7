package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/canonify/provider"
)

// GroupRequest asks the model to partition values directly.
type GroupRequest struct {
	Values  []string
	Context string
	Model   string
}

type groupResponse struct {
	Groups [][]int `json:"groups"`
}

const groupSchema = `{
  "type": "object",
  "properties": {
    "groups": {
      "type": "array",
      "items": {"type": "array", "items": {"type": "integer", "minimum": 0}}
    }
  },
  "required": ["groups"],
  "additionalProperties": false
}`

const groupPrompt = `Group the numbered values so that values referring to the SAME real-world entity share a group and DIFFERENT entities are in separate groups.

Rules:
- Every number appears in exactly one group.
- A value with no equivalent forms a group of its own.
- Differences in case, spacing, spelling, abbreviation or unit notation do not make entities different.

Return the groups as lists of the given numbers.`

// Group returns a partition of the indices of req.Values. The model's answer is
// repaired with RepairGroups, so the result is always a valid partition.
func (c *Client) Group(ctx context.Context, req GroupRequest) ([][]int, error) {
	n := len(req.Values)
	if n < 2 {
		return RepairGroups(nil, n), nil
	}

	system := groupPrompt
	if req.Context != "" {
		system += "\n\nContext: " + req.Context
	}

	var user strings.Builder
	for i, v := range req.Values {
		fmt.Fprintf(&user, "%d. %s\n", i, v)
	}

	model := req.Model
	if model == "" {
		model = DefaultChatModel
	}

	var resp groupResponse
	if err := c.complete(ctx, "group", provider.Request{
		Model:       model,
		System:      system,
		User:        user.String(),
		SchemaName:  "value_groups",
		Schema:      schema(groupSchema),
		Temperature: provider.Float(0),
		Seed:        provider.Int(DefaultSeed),
	}, &resp); err != nil {
		return nil, err
	}

	return RepairGroups(resp.Groups, n), nil
}

// RepairGroups turns an arbitrary grouping of indices into a partition of [0,n).
// Out-of-range indices are dropped, an index listed twice stays in its first group,
// and unassigned indices become singletons. Groups are ordered by smallest member with
// members ascending.
func RepairGroups(groups [][]int, n int) [][]int {
	assigned := make([]bool, n)
	out := make([][]int, 0, len(groups))

	for _, g := range groups {
		var kept []int
		for _, idx := range g {
			if idx < 0 || idx >= n || assigned[idx] {
				continue
			}
			assigned[idx] = true
			kept = append(kept, idx)
		}
		if len(kept) > 0 {
			sort.Ints(kept)
			out = append(out, kept)
		}
	}

	for i := 0; i < n; i++ {
		if !assigned[i] {
			out = append(out, []int{i})
		}
	}

	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}
