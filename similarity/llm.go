package similarity

import (
	"context"
	"fmt"

	"github.com/hupe1980/canonify/llm"
)

// Output selects what the LLM backend produces.
type Output string

const (
	// OutputScores produces a pairwise similarity matrix.
	OutputScores Output = "scores"
	// OutputPartition asks the model for a grouping directly.
	OutputPartition Output = "partition"
)

var _ Partitioner = (*LLM)(nil)

// LLM scores pairs with a language model.
type LLM struct {
	Client  *llm.Client
	Mode    llm.Mode
	Model   string
	Context string
	// Samples overrides the reliable mode sample count.
	Samples int
	Output  Output
}

// Method implements Backend.
func (*LLM) Method() Method { return MethodLLM }

// Compute implements Backend. Pairs the model did not score are 0.
func (b *LLM) Compute(ctx context.Context, values []string) (*Matrix, error) {
	n := len(values)
	if n < 2 {
		return Identity(n), nil
	}
	if b.Client == nil {
		return nil, fmt.Errorf("llm similarity requires a completer")
	}

	scores, err := b.Client.ScorePairs(ctx, llm.ScoreRequest{
		Values:  values,
		Context: b.Context,
		Mode:    b.Mode,
		Model:   b.Model,
		Samples: b.Samples,
	})
	if err != nil {
		return nil, err
	}

	m := NewMatrix(n)
	for p, v := range scores {
		m.Set(p.I, p.J, v)
	}
	return m, nil
}

// PartitionsDirectly implements Partitioner.
func (b *LLM) PartitionsDirectly() bool { return b.Output == OutputPartition }

// Partition implements Partitioner.
func (b *LLM) Partition(ctx context.Context, values []string) ([][]int, error) {
	if len(values) < 2 {
		return llm.RepairGroups(nil, len(values)), nil
	}
	if b.Client == nil {
		return nil, fmt.Errorf("llm similarity requires a completer")
	}
	return b.Client.Group(ctx, llm.GroupRequest{
		Values:  values,
		Context: b.Context,
		Model:   b.Model,
	})
}
