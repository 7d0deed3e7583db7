package canonical

import (
	"context"
	"fmt"
)

var _ Selector = MostFrequent{}

// MostFrequent selects the member with the highest count. Ties go to the member that
// occurs first in the column and are reported as AmbiguousCanonical.
type MostFrequent struct{}

// Strategy implements Selector.
func (MostFrequent) Strategy() Strategy { return StrategyMostFrequent }

// Select implements Selector.
func (MostFrequent) Select(_ context.Context, c Candidates) (Choice, error) {
	if err := c.validate(); err != nil {
		return Choice{}, err
	}
	return mostFrequent(c), nil
}

func mostFrequent(c Candidates) Choice {
	if len(c.Members) == 1 {
		return Choice{Value: c.Members[0]}
	}

	best := 0
	var tied []string
	for i := range c.Members {
		switch {
		case c.Counts[i] > c.Counts[best]:
			best = i
			tied = tied[:0]
		case i != best && c.Counts[i] == c.Counts[best]:
			if len(tied) == 0 {
				tied = append(tied, c.Members[best])
			}
			tied = append(tied, c.Members[i])
			if c.FirstRows[i] < c.FirstRows[best] {
				best = i
			}
		}
	}

	choice := Choice{Value: c.Members[best]}
	if len(tied) > 0 {
		choice.Warnings = append(choice.Warnings, Warning{
			Kind:    AmbiguousCanonical,
			Members: tied,
			Message: fmt.Sprintf("%d members share count %d, chose %q by first occurrence", len(tied), c.Counts[best], c.Members[best]),
		})
	}
	return choice
}
