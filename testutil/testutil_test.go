package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/canonify/distance"
	"github.com/hupe1980/canonify/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UnitVector(10)

	rng.Reset()
	v2 := rng.UnitVector(10)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestNoisyColumn(t *testing.T) {
	rng := NewRNG(4711)
	groups := [][]string{{"Yes", "yes", "YES"}, {"No", "no"}}

	values := rng.NoisyColumn(groups, 500, 0.1)
	require.Len(t, values, 500)

	allowed := map[string]bool{"Yes": true, "yes": true, "YES": true, "No": true, "no": true}
	nulls := 0
	for _, v := range values {
		if v == nil {
			nulls++
			continue
		}
		assert.True(t, allowed[*v], *v)
	}
	assert.Greater(t, nulls, 0)
	assert.Less(t, nulls, 150)
}

func TestFakeEmbedder(t *testing.T) {
	emb := NewFakeEmbedder(32, 4711, []string{"New York", "NYC"}, []string{"Boston"})

	vecs, err := emb.Embed(context.Background(), "m", []string{"New York", "NYC", "Boston", "Paris"})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	assert.Greater(t, distance.Dot(vecs[0], vecs[1]), float32(0.95))
	assert.Less(t, distance.Dot(vecs[0], vecs[2]), float32(0.8))
	assert.InDelta(t, 1.0, float64(distance.Norm(vecs[3])), 1e-5)

	again, err := emb.Embed(context.Background(), "m", []string{"Paris"})
	require.NoError(t, err)
	assert.Equal(t, vecs[3], again[0])
	assert.Equal(t, 2, emb.Calls())
	assert.Equal(t, 5, emb.Texts())
}

func TestFakeEmbedder_FailNext(t *testing.T) {
	emb := NewFakeEmbedder(8, 1)
	boom := errors.New("boom")
	emb.FailNext(1, func() error { return boom })

	_, err := emb.Embed(context.Background(), "m", []string{"a"})
	assert.ErrorIs(t, err, boom)

	_, err = emb.Embed(context.Background(), "m", []string{"a"})
	assert.NoError(t, err)
}

func TestFakeLLM(t *testing.T) {
	f := &FakeLLM{Score: ExactFold, Select: Longest}

	out, err := f.Complete(context.Background(), provider.Request{
		SchemaName: "similarity_response",
		User:       `[{"index":0,"a":"No","b":"NO"},{"index":1,"a":"No","b":"Yes"}]`,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scores":[{"index":0,"similarity":1},{"index":1,"similarity":0}]}`, out)

	out, err = f.Complete(context.Background(), provider.Request{
		SchemaName: "canonical_selection",
		User:       "1. NYC\n2. New York\n3. NY\n",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":2}`, out)

	_, err = f.Complete(context.Background(), provider.Request{SchemaName: "canonical_name"})
	assert.Error(t, err)

	assert.Equal(t, 1, f.Count("similarity_response"))
	assert.Len(t, f.Requests(), 3)
}
