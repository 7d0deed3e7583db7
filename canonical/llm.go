package canonical

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/canonify/llm"
)

var _ Selector = (*LLM)(nil)

// LLM asks a language model for the canonical value. By default the model must
// pick a member; an answer outside the list falls back to MostFrequent with a
// CanonicalFallback warning. With AllowNovel the model may propose a label that is
// not a member, which is kept and flagged NovelCanonical. Singletons never reach
// the model.
type LLM struct {
	Client     *llm.Client
	AllowNovel bool
	Model      string
}

// Strategy implements Selector.
func (*LLM) Strategy() Strategy { return StrategyLLM }

// Select implements Selector.
func (s *LLM) Select(ctx context.Context, c Candidates) (Choice, error) {
	if err := c.validate(); err != nil {
		return Choice{}, err
	}
	if len(c.Members) == 1 {
		return Choice{Value: c.Members[0]}, nil
	}
	if s.Client == nil {
		return Choice{}, fmt.Errorf("llm canonical selection requires a completer")
	}

	req := llm.CanonicalRequest{Members: c.Members, Context: c.Context, Model: s.Model}

	if s.AllowNovel {
		label, err := s.Client.ProposeCanonical(ctx, req)
		if err != nil {
			return Choice{}, err
		}
		if label == "" {
			return fallback(c, "model returned an empty label"), nil
		}
		choice := Choice{Value: label}
		if !slices.Contains(c.Members, label) {
			choice.Warnings = append(choice.Warnings, Warning{
				Kind:    NovelCanonical,
				Members: c.Members,
				Message: fmt.Sprintf("canonical %q is not a member of the cluster", label),
			})
		}
		return choice, nil
	}

	idx, err := s.Client.SelectCanonical(ctx, req)
	if err != nil {
		return Choice{}, err
	}
	if idx < 0 || idx >= len(c.Members) {
		return fallback(c, fmt.Sprintf("model selected number %d of %d", idx+1, len(c.Members))), nil
	}
	return Choice{Value: c.Members[idx]}, nil
}

func fallback(c Candidates, reason string) Choice {
	choice := mostFrequent(c)
	choice.Warnings = append([]Warning{{
		Kind:    CanonicalFallback,
		Members: c.Members,
		Message: reason + ", used most_frequent",
	}}, choice.Warnings...)
	return choice
}
