package canonify

import (
	"fmt"
	"math"

	"github.com/hupe1980/canonify/canonical"
	"github.com/hupe1980/canonify/cluster"
	"github.com/hupe1980/canonify/llm"
	"github.com/hupe1980/canonify/similarity"
)

// stages are the strategies of one pass, built from its PassConfig.
type stages struct {
	backend   similarity.Backend
	direct    bool
	clusterer cluster.Clusterer
	selector  canonical.Selector

	simParams     map[string]any
	clusterParams map[string]any
}

// Validate checks passes against the configured providers without running them.
func (c *Cleaner) Validate(passes []PassConfig) error {
	for i, p := range passes {
		if _, err := c.build(i, p, ""); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cleaner) build(i int, p PassConfig, columnName string) (*stages, error) {
	st := &stages{}
	domain := p.Context
	if domain == "" {
		domain = columnName
	}

	if err := c.buildSimilarity(i, p.Similarity, domain, st); err != nil {
		return nil, err
	}
	if err := c.buildClustering(i, p.Clustering, domain, st); err != nil {
		return nil, err
	}
	if err := c.buildCanonical(i, p.Canonical, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Cleaner) buildSimilarity(i int, cfg SimilarityConfig, domain string, st *stages) error {
	if cfg.Method == "" {
		return configErr(i, "similarity.method", "required", nil)
	}
	method, err := similarity.ParseMethod(cfg.Method)
	if err != nil {
		return configErr(i, "similarity.method", "must be character, semantic or llm", err)
	}
	if cfg.Output != "" && method != similarity.MethodLLM {
		return configErr(i, "similarity.output", "only supported by llm similarity", nil)
	}

	switch method {
	case similarity.MethodCharacter:
		st.backend = similarity.Character{FoldCase: cfg.FoldCase}
		st.simParams = map[string]any{"fold_case": cfg.FoldCase}

	case similarity.MethodSemantic:
		if c.opts.embedder == nil {
			return configErr(i, "similarity.method", "semantic similarity requires an embedder", nil)
		}
		model := cfg.Model
		if model == "" {
			model = c.opts.models.Embedding
		}
		if model == "" {
			return configErr(i, "similarity.model", "an embedding model is required", nil)
		}
		st.backend = &similarity.Semantic{
			Embedder:      c.opts.embedder,
			Model:         model,
			BatchSize:     c.opts.embedBatchSize,
			Cache:         c.opts.cache,
			Controller:    c.opts.controller,
			Logger:        c.opts.logger.Logger,
			OnCall:        c.opts.metricsCollector.RecordProviderCall,
			OnCacheLookup: c.opts.metricsCollector.RecordCacheLookup,
		}
		st.simParams = map[string]any{"model": model}

	case similarity.MethodLLM:
		if c.llm == nil {
			return configErr(i, "similarity.method", "llm similarity requires a completer", nil)
		}
		mode, err := llm.ParseMode(cfg.Mode)
		if err != nil {
			return configErr(i, "similarity.mode", "must be strict, fast or reliable", err)
		}
		if cfg.Samples < 0 {
			return configErr(i, "similarity.samples", "must not be negative", nil)
		}
		output := similarity.Output(cfg.Output)
		switch output {
		case "":
			output = similarity.OutputScores
		case similarity.OutputScores, similarity.OutputPartition:
		default:
			return configErr(i, "similarity.output", "must be scores or partition", nil)
		}
		model := cfg.Model
		if model == "" {
			model = mode.DefaultModel()
		}
		b := &similarity.LLM{
			Client:  c.llm,
			Mode:    mode,
			Model:   model,
			Context: domain,
			Samples: cfg.Samples,
			Output:  output,
		}
		st.backend = b
		st.direct = b.PartitionsDirectly()
		st.simParams = map[string]any{"mode": string(mode), "model": model, "output": string(output)}
		if mode == llm.ModeReliable {
			samples := cfg.Samples
			if samples == 0 {
				samples = llm.DefaultSamples
			}
			st.simParams["samples"] = samples
		}
		if domain != "" {
			st.simParams["context"] = domain
		}
	}
	return nil
}

func (c *Cleaner) buildClustering(i int, cfg ClusteringConfig, domain string, st *stages) error {
	if st.direct {
		if cfg.Method != "" {
			return configErr(i, "clustering.method", "must be empty when the llm similarity outputs a partition", nil)
		}
		st.clusterParams = map[string]any{}
		return nil
	}
	if cfg.Method == "" {
		return configErr(i, "clustering.method", "required", nil)
	}
	method, err := cluster.ParseMethod(cfg.Method)
	if err != nil {
		return configErr(i, "clustering.method", "must be hierarchical, connected_components or affinity_propagation", err)
	}

	if method.NeedsThreshold() {
		if cfg.Threshold == nil {
			return configErr(i, "clustering.threshold", fmt.Sprintf("required for %s", method), nil)
		}
		t := *cfg.Threshold
		if math.IsNaN(t) || t < 0 || t > 1 {
			return configErr(i, "clustering.threshold", fmt.Sprintf("%v is outside [0,1]", t), nil)
		}
		st.clusterParams = map[string]any{"threshold": t}
		if method == cluster.MethodHierarchical {
			st.clusterer = cluster.Hierarchical{Threshold: t}
		} else {
			st.clusterer = cluster.ConnectedComponents{Threshold: t}
		}
		if cfg.Tune {
			return configErr(i, "clustering.tune", "only supported by affinity_propagation", nil)
		}
		return nil
	}

	damping := cluster.DefaultDamping
	if cfg.Damping != nil {
		damping = *cfg.Damping
		if !(damping > 0 && damping < 1) {
			return configErr(i, "clustering.damping", fmt.Sprintf("%v is outside (0,1)", damping), nil)
		}
	}
	if cfg.MaxRounds < 0 {
		return configErr(i, "clustering.max_rounds", "must not be negative", nil)
	}
	ap := cluster.AffinityPropagation{Damping: damping, Preference: cfg.Preference}
	st.clusterParams = map[string]any{"damping": damping}
	if cfg.Preference != nil {
		st.clusterParams["preference"] = *cfg.Preference
	}

	if !cfg.Tune {
		st.clusterer = ap
		return nil
	}
	if c.llm == nil {
		return configErr(i, "clustering.tune", "tuning requires a completer", nil)
	}
	model := cfg.Model
	if model == "" {
		model = c.opts.models.Chat
	}
	tuned := cluster.TunedAffinity{
		AP:                ap,
		Evaluator:         cluster.LLMEvaluator{Client: c.llm, Context: domain, Model: model},
		MaxRounds:         cfg.MaxRounds,
		InitialPreference: cfg.Preference,
	}
	st.clusterer = tuned
	st.clusterParams["tuned"] = true
	st.clusterParams["model"] = model
	return nil
}

func (c *Cleaner) buildCanonical(i int, cfg CanonicalConfig, st *stages) error {
	strategy := canonical.StrategyMostFrequent
	if cfg.Strategy != "" {
		s, err := canonical.ParseStrategy(cfg.Strategy)
		if err != nil {
			return configErr(i, "canonical.strategy", "must be most_frequent or llm", err)
		}
		strategy = s
	}

	switch strategy {
	case canonical.StrategyLLM:
		if c.llm == nil {
			return configErr(i, "canonical.strategy", "llm canonical selection requires a completer", nil)
		}
		model := cfg.Model
		if model == "" {
			model = c.opts.models.Chat
		}
		st.selector = &canonical.LLM{Client: c.llm, AllowNovel: cfg.AllowNovel, Model: model}
	default:
		if cfg.AllowNovel {
			return configErr(i, "canonical.allow_novel", "only supported by the llm strategy", nil)
		}
		st.selector = canonical.MostFrequent{}
	}
	return nil
}
