package canonify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
passes:
  - name: casing
    similarity:
      method: character
      fold_case: true
    clustering:
      method: hierarchical
      threshold: 0.8
    canonical:
      strategy: most_frequent
  - name: synonyms
    context: US cities
    similarity:
      method: llm
      mode: reliable
      samples: 5
    clustering:
      method: affinity_propagation
      damping: 0.75
      tune: true
      max_rounds: 3
    canonical:
      strategy: llm
      allow_novel: true
`

func TestLoadPlan(t *testing.T) {
	passes, err := LoadPlan(strings.NewReader(samplePlan))
	require.NoError(t, err)
	require.Len(t, passes, 2)

	assert.Equal(t, PassConfig{
		Name:       "casing",
		Similarity: SimilarityConfig{Method: "character", FoldCase: true},
		Clustering: ClusteringConfig{Method: "hierarchical", Threshold: Float(0.8)},
		Canonical:  CanonicalConfig{Strategy: "most_frequent"},
	}, passes[0])

	second := passes[1]
	assert.Equal(t, "US cities", second.Context)
	assert.Equal(t, "reliable", second.Similarity.Mode)
	assert.Equal(t, 5, second.Similarity.Samples)
	require.NotNil(t, second.Clustering.Damping)
	assert.Equal(t, 0.75, *second.Clustering.Damping)
	assert.Nil(t, second.Clustering.Threshold)
	assert.True(t, second.Clustering.Tune)
	assert.Equal(t, 3, second.Clustering.MaxRounds)
	assert.True(t, second.Canonical.AllowNovel)
}

func TestLoadPlanErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field": "passes:\n  - similarity: {method: character, colour: red}\n",
		"no passes":     "passes: []\n",
		"empty":         "",
		"not yaml":      "passes: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPlan(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o600))

	passes, err := LoadPlanFile(path)
	require.NoError(t, err)
	assert.Len(t, passes, 2)

	_, err = LoadPlanFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlanValidatesAgainstProviders(t *testing.T) {
	passes, err := LoadPlan(strings.NewReader(samplePlan))
	require.NoError(t, err)

	err = New().Validate(passes)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Pass)
}
