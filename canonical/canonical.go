// Package canonical chooses the representative string of each cluster.
package canonical

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Strategy names a selection strategy.
type Strategy string

const (
	StrategyMostFrequent Strategy = "most_frequent"
	StrategyLLM          Strategy = "llm"
)

// ParseStrategy validates s.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyMostFrequent, StrategyLLM:
		return st, nil
	default:
		return "", fmt.Errorf("unknown canonical strategy %q", s)
	}
}

// WarningKind classifies a non-fatal selection issue.
type WarningKind string

const (
	// AmbiguousCanonical: several members share the highest count.
	AmbiguousCanonical WarningKind = "ambiguous_canonical"
	// NovelCanonical: the chosen label is not a member of the cluster.
	NovelCanonical WarningKind = "novel_canonical"
	// CanonicalFallback: the model's answer was unusable and most_frequent was used.
	CanonicalFallback WarningKind = "canonical_fallback"
)

// Warning is a non-fatal issue recorded for one cluster.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Members []string    `json:"members"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s [%s]", w.Kind, w.Message, strings.Join(w.Members, ", "))
}

// Candidates describes one cluster. Counts and FirstRows are aligned with Members.
type Candidates struct {
	Members   []string
	Counts    []int
	FirstRows []int
	// Context is the column name or a domain description.
	Context string
}

// Choice is the selected canonical value.
type Choice struct {
	Value    string
	Warnings []Warning
}

// Selector picks the canonical value of a cluster.
type Selector interface {
	Strategy() Strategy
	Select(ctx context.Context, c Candidates) (Choice, error)
}

// ErrNoMembers is returned for an empty cluster.
var ErrNoMembers = errors.New("cluster has no members")

func (c Candidates) validate() error {
	if len(c.Members) == 0 {
		return ErrNoMembers
	}
	if len(c.Counts) != len(c.Members) || len(c.FirstRows) != len(c.Members) {
		return fmt.Errorf("candidates misaligned: %d members, %d counts, %d first rows",
			len(c.Members), len(c.Counts), len(c.FirstRows))
	}
	return nil
}
