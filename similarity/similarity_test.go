package similarity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/canonify/embedcache"
	"github.com/hupe1980/canonify/llm"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/testutil"
)

func assertWellFormed(t *testing.T, m *Matrix) {
	t.Helper()
	for i := 0; i < m.Len(); i++ {
		assert.InDelta(t, 1.0, m.At(i, i), 1e-9)
		for j := 0; j < m.Len(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.GreaterOrEqual(t, m.At(i, j), 0.0)
			assert.LessOrEqual(t, m.At(i, j), 1.0)
		}
	}
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(3)
	m.Set(0, 1, 0.4)
	m.Set(1, 2, 1.7)
	m.Set(0, 2, -0.2)
	m.Set(1, 1, 0.3)

	assert.Equal(t, 0.4, m.At(1, 0))
	assert.Equal(t, 1.0, m.At(2, 1))
	assert.Equal(t, 0.0, m.At(0, 2))
	assert.Equal(t, 1.0, m.At(1, 1))
	assert.Equal(t, []float64{0.4, 0, 1}, m.OffDiagonal())
	assert.Equal(t, Summary{Min: 0, Max: 1, Median: 0.4}, m.Summarize())

	empty := NewMatrix(0)
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Symmetric())
	assert.Equal(t, Summary{}, empty.Summarize())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("semantic")
	require.NoError(t, err)
	assert.Equal(t, MethodSemantic, m)

	_, err = ParseMethod("phonetic")
	assert.Error(t, err)
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		fold bool
		want float64
	}{
		{"identical", "Boston", "Boston", false, 1},
		{"word order", "New York", "York New", false, 1},
		{"case sensitive", "No", "NO", false, 0.5},
		{"case folded", "No", "NO", true, 1},
		{"spacing", "250L", "250 L", true, 8.0 / 9.0},
		{"disjoint", "abc", "xyz", false, 0},
		{"both empty", "", "  ", false, 1},
		{"one empty", "", "x", false, 0},
		{"nfc", "café", "café", false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TokenSortRatio(tt.a, tt.b, tt.fold), 1e-9)
		})
	}
}

func TestTokenSortRatio_CommonSubsequence(t *testing.T) {
	alphabet := []rune("aAbB0L.é")
	rng := testutil.NewRNG(7)
	word := func() string {
		rs := make([]rune, rng.Intn(8))
		for i := range rs {
			rs[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(rs)
	}

	for i := 0; i < 500; i++ {
		a, b := word(), word()
		ra, rb := []rune(a), []rune(b)
		want := 1.0
		if total := len(ra) + len(rb); total > 0 {
			want = 2 * float64(commonSubsequence(ra, rb)) / float64(total)
		}
		assert.InDelta(t, want, TokenSortRatio(a, b, false), 1e-9, "%q vs %q", a, b)
	}
}

func commonSubsequence(a, b []rune) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}
	return dp[len(a)][len(b)]
}

func TestCharacterCompute(t *testing.T) {
	ctx := context.Background()

	m, err := Character{FoldCase: true}.Compute(ctx, []string{"No", "NO", "no", "TRUE", "True", "true"})
	require.NoError(t, err)
	assertWellFormed(t, m)
	assert.Equal(t, 1.0, m.At(0, 2))
	assert.Equal(t, 1.0, m.At(3, 5))
	assert.Less(t, m.At(0, 3), 0.5)

	m, err = Character{}.Compute(ctx, []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Character{}.Compute(cancelled, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSemanticCompute(t *testing.T) {
	ctx := context.Background()
	values := []string{"NYC", "New York City", "Boston", "Beantown"}
	emb := testutil.NewFakeEmbedder(128, 7, []string{"NYC", "New York City"}, []string{"Boston", "Beantown"})

	s := &Semantic{Embedder: emb, BatchSize: 3}
	m, err := s.Compute(ctx, values)
	require.NoError(t, err)
	assertWellFormed(t, m)

	assert.Greater(t, m.At(0, 1), 0.9)
	assert.Greater(t, m.At(2, 3), 0.9)
	assert.Less(t, m.At(0, 2), 0.5)
	assert.Equal(t, 2, emb.Calls())
	assert.Equal(t, 4, emb.Texts())
}

func TestSemanticCache(t *testing.T) {
	ctx := context.Background()
	values := []string{"NYC", "New York City", "Boston"}
	emb := testutil.NewFakeEmbedder(32, 1, []string{"NYC", "New York City"})
	cache := embedcache.NewLRU(100)

	var hits, misses int
	s := &Semantic{
		Embedder: emb,
		Cache:    cache,
		OnCacheLookup: func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		},
	}

	first, err := s.Compute(ctx, values)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.Calls())
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, 3, misses)

	second, err := s.Compute(ctx, values)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.Calls(), "cached values must not be re-embedded")
	assert.Equal(t, 3, hits)
	assert.InDelta(t, first.At(0, 1), second.At(0, 1), 1e-6)

	_, ok, err := cache.Get(ctx, embedcache.Key{Model: DefaultEmbeddingModel, Value: "Boston"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSemanticNoCallsForSingleValue(t *testing.T) {
	emb := testutil.NewFakeEmbedder(8, 1)
	m, err := (&Semantic{Embedder: emb}).Compute(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, emb.Calls())
}

func TestSemanticProviderError(t *testing.T) {
	emb := testutil.NewFakeEmbedder(8, 1)
	boom := errors.New("boom")
	emb.FailNext(1, func() error { return boom })

	var observed []error
	s := &Semantic{
		Embedder: emb,
		Model:    "m",
		OnCall:   func(_ string, _ time.Duration, err error) { observed = append(observed, err) },
	}
	_, err := s.Compute(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "embed", pe.Kind)
	assert.Equal(t, "m", pe.Model)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, observed, 1)
}

func TestSemanticRequiresEmbedder(t *testing.T) {
	_, err := (&Semantic{}).Compute(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestLLMCompute(t *testing.T) {
	fake := &testutil.FakeLLM{Score: testutil.ExactFold}
	b := &LLM{Client: llm.NewClient(fake), Mode: llm.ModeFast}

	m, err := b.Compute(context.Background(), []string{"Yes", "yes", "No"})
	require.NoError(t, err)
	assertWellFormed(t, m)
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(0, 2))
	assert.False(t, b.PartitionsDirectly())
	assert.Equal(t, MethodLLM, b.Method())
}

func TestLLMPartition(t *testing.T) {
	fake := &testutil.FakeLLM{Group: func(values []string) [][]int {
		return [][]int{{0, 2}, {1}}
	}}
	b := &LLM{Client: llm.NewClient(fake), Output: OutputPartition}
	require.True(t, b.PartitionsDirectly())

	groups, err := b.Partition(context.Background(), []string{"a", "b", "A"})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2}, {1}}, groups)

	groups, err = b.Partition(context.Background(), []string{"solo"})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, groups)
	assert.Equal(t, 1, fake.Count("value_groups"))
}
