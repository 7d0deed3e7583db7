package llm

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
	"github.com/hupe1980/canonify/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSize(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{2, 15}, {10, 15}, {11, 20}, {30, 20}, {31, 30}, {75, 30}, {76, 40}, {100, 40}, {101, 50}, {1000, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BatchSize(tt.n), "n=%d", tt.n)
	}
}

func TestAllPairs(t *testing.T) {
	assert.Nil(t, AllPairs(1))
	assert.Equal(t, []Pair{{0, 1}, {0, 2}, {1, 2}}, AllPairs(3))
	assert.Len(t, AllPairs(12), 66)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFast, m)

	m, err = ParseMode(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	_, err = ParseMode("sloppy")
	assert.Error(t, err)

	assert.Equal(t, "gpt-4.1", ModeFast.DefaultModel())
	assert.Equal(t, "gpt-5-mini", ModeStrict.DefaultModel())
}

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON("Sure!\n```json\n{\"index\": 2}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"index": 2}`, string(raw))

	_, err = ExtractJSON("no json here")
	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
}

func TestScorePairs_Fast(t *testing.T) {
	fake := &testutil.FakeLLM{Score: testutil.ExactFold}
	c := NewClient(fake)

	values := []string{"No", "NO", "no", "Yes", "YES"}
	scores, err := c.ScorePairs(context.Background(), ScoreRequest{Values: values, Context: "survey answers"})
	require.NoError(t, err)

	assert.Len(t, scores, 10)
	assert.Equal(t, 1.0, scores[Pair{0, 1}])
	assert.Equal(t, 0.0, scores[Pair{0, 3}])
	assert.Equal(t, 1.0, scores[Pair{3, 4}])

	reqs := fake.Requests()
	require.Len(t, reqs, 1) // 10 pairs fit one batch of 15
	assert.Equal(t, "gpt-4.1", reqs[0].Model)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.0, *reqs[0].Temperature)
	assert.Equal(t, int64(42), *reqs[0].Seed)
	assert.Contains(t, reqs[0].System, "Context: survey answers")
	assert.Contains(t, reqs[0].System, "Definitely same entity")
}

func TestScorePairs_Strict(t *testing.T) {
	fake := &testutil.FakeLLM{Score: func(a, b string) float64 { return 1 }}
	c := NewClient(fake)

	_, err := c.ScorePairs(context.Background(), ScoreRequest{Values: []string{"250L", "0.25 m3"}, Mode: ModeStrict})
	require.NoError(t, err)

	req := fake.Requests()[0]
	assert.Equal(t, "gpt-5-mini", req.Model)
	assert.Equal(t, "low", req.ReasoningEffort)
	assert.Nil(t, req.Temperature)
	assert.Contains(t, req.System, "same quantity")
}

func TestScorePairs_Batching(t *testing.T) {
	fake := &testutil.FakeLLM{Score: func(a, b string) float64 { return 0.5 }}
	c := NewClient(fake, WithController(resource.NewController(resource.Config{MaxConcurrentCalls: 3})))

	values := make([]string, 12) // 66 pairs, batch size 20 -> 4 requests
	for i := range values {
		values[i] = strings.Repeat("x", i+1)
	}

	scores, err := c.ScorePairs(context.Background(), ScoreRequest{Values: values, Model: "local-model"})
	require.NoError(t, err)
	assert.Len(t, scores, 66)
	assert.Equal(t, 4, fake.Count("similarity_response"))
	for _, r := range fake.Requests() {
		assert.Equal(t, "local-model", r.Model)
	}
}

func TestScorePairs_ReliableMedian(t *testing.T) {
	var calls atomic.Int64
	c := NewClient(provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		switch calls.Add(1) {
		case 1:
			return `{"scores":[{"index":0,"similarity":0.9}]}`, nil
		case 2:
			return `{"scores":[{"index":0,"similarity":0.1}]}`, nil
		default:
			return `{"scores":[{"index":0,"similarity":0.7}]}`, nil
		}
	}))

	scores, err := c.ScorePairs(context.Background(), ScoreRequest{Values: []string{"a", "b"}, Mode: ModeReliable})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
	assert.InDelta(t, 0.7, scores[Pair{0, 1}], 1e-9)
}

func TestScorePairs_MissingAndInvalid(t *testing.T) {
	c := NewClient(provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		// Pair 1 is missing, index 7 does not exist, two scores are out of range.
		return `{"scores":[{"index":0,"similarity":1.7},{"index":2,"similarity":-0.2},{"index":7,"similarity":1}]}`, nil
	}))

	scores, err := c.ScorePairs(context.Background(), ScoreRequest{Values: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores[Pair{0, 1}])
	assert.Equal(t, 0.0, scores[Pair{1, 2}])
	_, ok := scores[Pair{0, 2}]
	assert.False(t, ok)
}

func TestScorePairs_ProviderError(t *testing.T) {
	var observed []error
	fake := &testutil.FakeLLM{Err: &provider.StatusError{StatusCode: 503}}
	c := NewClient(fake,
		WithController(resource.NewController(resource.Config{
			Retry: resource.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond},
		})),
		WithObserver(func(kind string, d time.Duration, err error) {
			assert.Equal(t, "complete", kind)
			observed = append(observed, err)
		}),
	)

	_, err := c.ScorePairs(context.Background(), ScoreRequest{Values: []string{"a", "b"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrProvider)

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Attempts)
	assert.Len(t, observed, 1)
}

func TestGroup(t *testing.T) {
	fake := &testutil.FakeLLM{Group: func(values []string) [][]int {
		assert.Equal(t, []string{"NYC", "Boston", "New York", "BOS"}, values)
		return [][]int{{2, 0}, {1, 3}}
	}}
	c := NewClient(fake)

	groups, err := c.Group(context.Background(), GroupRequest{Values: []string{"NYC", "Boston", "New York", "BOS"}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2}, {1, 3}}, groups)
	assert.Equal(t, DefaultChatModel, fake.Requests()[0].Model)
}

func TestGroup_Degenerate(t *testing.T) {
	c := NewClient(&testutil.FakeLLM{})
	groups, err := c.Group(context.Background(), GroupRequest{Values: []string{"only"}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, groups)
}

func TestRepairGroups(t *testing.T) {
	got := RepairGroups([][]int{{4, 1}, {1, 9, -1}, {}, {3}}, 6)
	assert.Equal(t, [][]int{{0}, {1, 4}, {2}, {3}, {5}}, got)

	assert.Equal(t, [][]int{}, RepairGroups(nil, 0))
}

func TestSelectCanonical(t *testing.T) {
	fake := &testutil.FakeLLM{Select: testutil.Longest}
	c := NewClient(fake)

	idx, err := c.SelectCanonical(context.Background(), CanonicalRequest{
		Members: []string{"NYC", "New York", "NY"},
		Context: "city",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	req := fake.Requests()[0]
	assert.Equal(t, "1. NYC\n2. New York\n3. NY\n", req.User)
	assert.Contains(t, req.System, "Values are from column: city")
}

func TestProposeCanonical(t *testing.T) {
	fake := &testutil.FakeLLM{Propose: func(members []string) string { return " New York City " }}
	c := NewClient(fake)

	label, err := c.ProposeCanonical(context.Background(), CanonicalRequest{Members: []string{"NYC", "NY"}})
	require.NoError(t, err)
	assert.Equal(t, "New York City", label)
}

func TestEvaluateClusters(t *testing.T) {
	fake := &testutil.FakeLLM{Evaluate: func(round int, prompt string) string {
		assert.Contains(t, prompt, `Cluster 0: ["New York", "NYC"]`)
		assert.Contains(t, prompt, "Current preference: -0.5000")
		return `{"is_satisfactory":false,"num_clusters":2,"issues":["split"],"suggested_preference":-0.3,"reasoning":"r"}`
	}}
	c := NewClient(fake)

	ev, err := c.EvaluateClusters(context.Background(), EvaluateRequest{
		Values:     []string{"New York", "NYC", "Boston"},
		Groups:     [][]int{{0, 1}, {2}},
		Preference: -0.5,
		Iteration:  1,
		Stats:      Stats{Min: 0.1, Max: 0.9, Median: 0.4},
	})
	require.NoError(t, err)
	assert.False(t, ev.Satisfactory)
	assert.Equal(t, -0.3, ev.SuggestedPreference)
	assert.Equal(t, []string{"split"}, ev.Issues)
}

func TestComplete_MalformedIsPermanent(t *testing.T) {
	var calls atomic.Int64
	c := NewClient(provider.CompleterFunc(func(ctx context.Context, req provider.Request) (string, error) {
		calls.Add(1)
		return "I cannot answer that", nil
	}), WithController(resource.NewController(resource.Config{})))

	_, err := c.SelectCanonical(context.Background(), CanonicalRequest{Members: []string{"a", "b"}})
	assert.True(t, errors.Is(err, provider.ErrMalformedResponse))
	assert.Equal(t, int64(1), calls.Load())
}
