// Package canonify repairs structural errors in categorical columns.
//
// Surface variants of one entity ("NYC", "New York", "new york") are grouped and
// rewritten to a single canonical string. A pass combines three pluggable stages:
//
//	similarity  character | semantic | llm
//	clustering  hierarchical | connected_components | affinity_propagation
//	canonical   most_frequent | llm
//
// Passes can be chained, each operating on the output of the previous one.
//
// # Quick Start
//
//	cleaner := canonify.New()
//	res, err := cleaner.Clean(ctx, column.New("answer", values), []canonify.PassConfig{{
//	    Similarity: canonify.SimilarityConfig{Method: "character", FoldCase: true},
//	    Clustering: canonify.ClusteringConfig{Method: "hierarchical", Threshold: canonify.Float(0.8)},
//	    Canonical:  canonify.CanonicalConfig{Strategy: "most_frequent"},
//	}})
//
// # Providers
//
// Semantic similarity needs an embedder, LLM similarity and LLM canonical selection
// need a completer:
//
//	oa, _ := openai.NewFromEnv()
//	cleaner := canonify.New(
//	    canonify.WithEmbedder(oa),
//	    canonify.WithCompleter(oa),
//	    canonify.WithEmbeddingCache(embedcache.NewLRU(10000)),
//	)
//
// Provider calls are governed by a resource.Controller: bounded concurrency, an
// optional rate limit, per-call timeouts and retries of transient failures.
//
// # Plans
//
// Pass sequences can be kept in YAML and loaded with LoadPlan.
package canonify
