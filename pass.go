package canonify

import (
	"time"

	"github.com/hupe1980/canonify/canonical"
	"github.com/hupe1980/canonify/cluster"
	"github.com/hupe1980/canonify/similarity"
)

// PassConfig describes one cleaning pass.
type PassConfig struct {
	Name       string           `yaml:"name,omitempty" json:"name,omitempty"`
	Similarity SimilarityConfig `yaml:"similarity" json:"similarity"`
	Clustering ClusteringConfig `yaml:"clustering" json:"clustering"`
	Canonical  CanonicalConfig  `yaml:"canonical" json:"canonical"`
	// Context describes the column's domain for LLM prompts. Defaults to the column
	// name.
	Context string `yaml:"context,omitempty" json:"context,omitempty"`
}

// SimilarityConfig selects and parameterises the similarity backend.
type SimilarityConfig struct {
	// Method is character, semantic or llm.
	Method string `yaml:"method" json:"method"`
	// FoldCase makes character similarity case-insensitive.
	FoldCase bool `yaml:"fold_case,omitempty" json:"fold_case,omitempty"`
	// Model is the embedding model (semantic) or chat model (llm).
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
	// Mode is the llm strictness: strict, fast or reliable.
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`
	// Samples overrides the number of samples in reliable mode.
	Samples int `yaml:"samples,omitempty" json:"samples,omitempty"`
	// Output is scores (default) or partition; partition bypasses clustering.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// ClusteringConfig selects and parameterises the clustering algorithm.
type ClusteringConfig struct {
	// Method is hierarchical, connected_components or affinity_propagation.
	Method string `yaml:"method" json:"method"`
	// Threshold is required by hierarchical and connected_components.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	// Damping for affinity propagation, in (0,1). Defaults to 0.9.
	Damping *float64 `yaml:"damping,omitempty" json:"damping,omitempty"`
	// Preference for affinity propagation. Defaults to the median similarity.
	Preference *float64 `yaml:"preference,omitempty" json:"preference,omitempty"`
	// Tune lets an LLM adjust the affinity propagation preference.
	Tune bool `yaml:"tune,omitempty" json:"tune,omitempty"`
	// MaxRounds bounds tuning rounds. Defaults to 5.
	MaxRounds int `yaml:"max_rounds,omitempty" json:"max_rounds,omitempty"`
	// Model is the chat model used for tuning.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
}

// CanonicalConfig selects the canonical strategy.
type CanonicalConfig struct {
	// Strategy is most_frequent (default) or llm.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	// AllowNovel lets the llm strategy return a label that is not a cluster member.
	AllowNovel bool   `yaml:"allow_novel,omitempty" json:"allow_novel,omitempty"`
	Model      string `yaml:"model,omitempty" json:"model,omitempty"`
}

// Float returns a pointer to v, for Threshold, Damping and Preference.
func Float(v float64) *float64 { return &v }

// ClusterEntry is one row of a pass's cluster table.
type ClusterEntry struct {
	Members   []string `json:"members"`
	Canonical string   `json:"canonical"`
}

// PassResult reports one pass.
type PassResult struct {
	Name              string              `json:"name,omitempty"`
	SimilarityMethod  similarity.Method   `json:"similarity_method"`
	SimilarityParams  map[string]any      `json:"similarity_params"`
	ClusteringMethod  cluster.Method      `json:"clustering_method"`
	ClusteringParams  map[string]any      `json:"clustering_params"`
	CanonicalStrategy canonical.Strategy  `json:"canonical_strategy"`
	UniqueBefore      int                 `json:"unique_before"`
	UniqueAfter       int                 `json:"unique_after"`
	ValuesChanged     int                 `json:"values_changed"`
	ClusterTable      []ClusterEntry      `json:"cluster_table"`
	Warnings          []canonical.Warning `json:"warnings,omitempty"`
	DirectPartition   bool                `json:"direct_partition"`
	Duration          time.Duration       `json:"duration"`
}
