package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/canonify/provider"
)

// Pair identifies two value indices with I < J.
type Pair struct {
	I, J int
}

// BatchSize returns the number of pairs sent per request for n distinct values.
func BatchSize(n int) int {
	switch {
	case n <= 10:
		return 15
	case n <= 30:
		return 20
	case n <= 75:
		return 30
	case n <= 100:
		return 40
	default:
		return 50
	}
}

// AllPairs enumerates every i<j pair in row-major order.
func AllPairs(n int) []Pair {
	if n < 2 {
		return nil
	}
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	return pairs
}

// ScoreRequest asks for pairwise similarity scores.
type ScoreRequest struct {
	Values  []string
	Context string
	Mode    Mode
	// Model overrides the mode's default model.
	Model string
	// Samples overrides the reliable mode sample count.
	Samples int
}

type pairScore struct {
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

type scoreResponse struct {
	Scores []pairScore `json:"scores"`
}

const scoreSchema = `{
  "type": "object",
  "properties": {
    "scores": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "similarity": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["index", "similarity"],
        "additionalProperties": false
      }
    }
  },
  "required": ["scores"],
  "additionalProperties": false
}`

const strictPrompt = `For each pair (a vs b): Do these two values represent the same quantity?

Similarity scoring:
- 1.0 = Same quantity (different format/unit allowed)
- 0.0 = Different quantity

Convert to base unit if needed, then compare.`

const gradedPrompt = `Score similarity for each pair (a vs b).

Scoring:
- 1.0 = Definitely same entity
- 0.8-0.9 = Very likely same
- 0.5-0.7 = Possibly related
- 0.1-0.4 = Weak relation
- 0.0 = Definitely different

Be precise: scoring different entities too high is worse than scoring same entities too low.`

func scoreSystemPrompt(binary bool, context string) string {
	var sb strings.Builder
	if binary {
		sb.WriteString(strictPrompt)
	} else {
		sb.WriteString(gradedPrompt)
	}
	if context != "" {
		sb.WriteString("\n\nContext: ")
		sb.WriteString(context)
	}
	sb.WriteString("\n\nReturn similarity score and index as given in input.")
	return sb.String()
}

type pairInput struct {
	Index int    `json:"index"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// ScorePairs scores every i<j pair of req.Values.
//
// Batches are sent concurrently; the caller's resource controller bounds the number
// of requests in flight. Scores are clamped to [0,1]; pairs the model skipped are
// absent from the result. In reliable mode each pair gets the median of its samples.
func (c *Client) ScorePairs(ctx context.Context, req ScoreRequest) (map[Pair]float64, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeFast
	}
	set := mode.settings()
	if req.Model != "" {
		set.model = req.Model
	}
	samples := set.samples
	if mode == ModeReliable && req.Samples > 0 {
		samples = req.Samples
	}

	pairs := AllPairs(len(req.Values))
	if len(pairs) == 0 {
		return map[Pair]float64{}, nil
	}

	size := BatchSize(len(req.Values))
	var batches [][]Pair
	for start := 0; start < len(pairs); start += size {
		end := min(start+size, len(pairs))
		batches = append(batches, pairs[start:end])
	}

	system := scoreSystemPrompt(set.binary, req.Context)

	// results[b][s] holds sample s of batch b.
	results := make([][][]pairScore, len(batches))
	for b := range results {
		results[b] = make([][]pairScore, samples)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.controller.MaxConcurrentCalls()))

	for b, batch := range batches {
		inputs := make([]pairInput, len(batch))
		for k, p := range batch {
			inputs[k] = pairInput{Index: k, A: req.Values[p.I], B: req.Values[p.J]}
		}
		user, err := c.codec.Marshal(inputs)
		if err != nil {
			return nil, fmt.Errorf("encode pair batch: %w", err)
		}

		for s := 0; s < samples; s++ {
			g.Go(func() error {
				var resp scoreResponse
				err := c.complete(gctx, "score_pairs", provider.Request{
					Model:           set.model,
					System:          system,
					User:            string(user),
					SchemaName:      "similarity_response",
					Schema:          schema(scoreSchema),
					Temperature:     set.temperature,
					Seed:            provider.Int(DefaultSeed + int64(s)),
					ReasoningEffort: set.reasoningEffort,
				}, &resp)
				if err != nil {
					return err
				}
				results[b][s] = resp.Scores
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	samplesByPair := make(map[Pair][]float64, len(pairs))
	for b, batch := range batches {
		for _, sample := range results[b] {
			seen := make(map[int]bool, len(sample))
			for _, sc := range sample {
				if sc.Index < 0 || sc.Index >= len(batch) || seen[sc.Index] {
					continue
				}
				seen[sc.Index] = true
				p := batch[sc.Index]
				samplesByPair[p] = append(samplesByPair[p], clamp01(sc.Similarity))
			}
		}
	}

	scores := make(map[Pair]float64, len(samplesByPair))
	for p, vs := range samplesByPair {
		scores[p] = median(vs)
	}
	return scores, nil
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func median(vs []float64) float64 {
	if len(vs) == 1 {
		return vs[0]
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
