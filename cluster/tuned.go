package cluster

import (
	"context"
	"fmt"

	"github.com/hupe1980/canonify/llm"
	"github.com/hupe1980/canonify/similarity"
)

// Preference bounds used while tuning.
const (
	DefaultMaxRounds = 5

	initialPreferenceOffset = 0.3
	minInitialPreference    = -0.95
	maxInitialPreference    = -0.05
	minPreference           = -0.99
	maxPreference           = -0.01
)

// Round is one tuning iteration presented to an Evaluator.
type Round struct {
	Values     []string
	Partition  Partition
	Preference float64
	Iteration  int
	Summary    similarity.Summary
}

// Verdict is an Evaluator's judgement of a Round.
type Verdict struct {
	Satisfactory        bool
	SuggestedPreference float64
	Issues              []string
	Reasoning           string
}

// Evaluator judges a grouping and suggests a new preference.
type Evaluator interface {
	Evaluate(ctx context.Context, round Round) (Verdict, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, round Round) (Verdict, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, round Round) (Verdict, error) {
	return f(ctx, round)
}

// LLMEvaluator asks a language model to judge each round.
type LLMEvaluator struct {
	Client  *llm.Client
	Context string
	Model   string
}

// Evaluate implements Evaluator.
func (e LLMEvaluator) Evaluate(ctx context.Context, round Round) (Verdict, error) {
	ev, err := e.Client.EvaluateClusters(ctx, llm.EvaluateRequest{
		Values:     round.Values,
		Groups:     round.Partition,
		Preference: round.Preference,
		Iteration:  round.Iteration,
		Stats: llm.Stats{
			Min:    round.Summary.Min,
			Max:    round.Summary.Max,
			Median: round.Summary.Median,
		},
		Context: e.Context,
		Model:   e.Model,
	})
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{
		Satisfactory:        ev.Satisfactory,
		SuggestedPreference: ev.SuggestedPreference,
		Issues:              ev.Issues,
		Reasoning:           ev.Reasoning,
	}, nil
}

// TuneReport summarises a tuning run.
type TuneReport struct {
	Rounds       int
	Preference   float64
	Satisfactory bool
	Verdicts     []Verdict
}

// Tuner is implemented by clusterers that search their own parameters.
type Tuner interface {
	Clusterer
	Tune(ctx context.Context, in Input) (Partition, TuneReport, error)
}

var _ Tuner = TunedAffinity{}

// TunedAffinity runs affinity propagation repeatedly, letting an Evaluator adjust the
// preference between rounds. It stops at the first satisfactory round. If no round
// satisfies the evaluator, the round with the most clusters short of all singletons
// is returned, provided it has more than one cluster; otherwise the last round.
type TunedAffinity struct {
	AP        AffinityPropagation
	Evaluator Evaluator
	// MaxRounds bounds the evaluator calls. Zero means 5.
	MaxRounds int
	// InitialPreference defaults to the median similarity minus 0.3, clamped to
	// [-0.95, -0.05].
	InitialPreference *float64
}

// Method implements Clusterer.
func (TunedAffinity) Method() Method { return MethodAffinityPropagation }

// Cluster implements Clusterer.
func (t TunedAffinity) Cluster(ctx context.Context, in Input) (Partition, error) {
	p, _, err := t.Tune(ctx, in)
	return p, err
}

// Tune implements Tuner.
func (t TunedAffinity) Tune(ctx context.Context, in Input) (Partition, TuneReport, error) {
	n := in.Len()
	if n < 2 {
		return Singletons(n), TuneReport{}, nil
	}
	if t.Evaluator == nil {
		return nil, TuneReport{}, fmt.Errorf("tuned affinity propagation requires an evaluator")
	}

	rounds := t.MaxRounds
	if rounds <= 0 {
		rounds = DefaultMaxRounds
	}
	summary := in.Matrix.Summarize()

	pref := clamp(summary.Median-initialPreferenceOffset, minInitialPreference, maxInitialPreference)
	if t.InitialPreference != nil {
		pref = *t.InitialPreference
	}

	ap := t.AP.withDefaults()
	report := TuneReport{}

	var (
		last     Partition
		lastPref float64
		best     Partition
		bestPref float64
	)
	for i := 0; i < rounds; i++ {
		p, err := ap.run(ctx, in, pref)
		if err != nil {
			return nil, report, err
		}
		last, lastPref = p, pref

		if len(p) > len(best) && len(p) < n {
			best, bestPref = p, pref
		}

		verdict, err := t.Evaluator.Evaluate(ctx, Round{
			Values:     in.Values,
			Partition:  p,
			Preference: pref,
			Iteration:  i + 1,
			Summary:    summary,
		})
		if err != nil {
			return nil, report, err
		}
		report.Rounds++
		report.Verdicts = append(report.Verdicts, verdict)

		if verdict.Satisfactory {
			report.Preference = pref
			report.Satisfactory = true
			return p, report, nil
		}
		pref = clamp(verdict.SuggestedPreference, minPreference, maxPreference)
	}

	if len(best) > 1 {
		report.Preference = bestPref
		return best, report, nil
	}
	report.Preference = lastPref
	return last, report, nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
