package similarity

import (
	"context"
	"sort"
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var _ Backend = Character{}

// Character scores pairs by token-sorted edit similarity.
//
// Each value is NFC-normalised, split on whitespace, its tokens sorted and rejoined
// with single spaces. The score is 2·LCS/(len(a)+len(b)) over runes. Case and
// punctuation are significant unless FoldCase is set.
type Character struct {
	FoldCase bool
}

// Method implements Backend.
func (Character) Method() Method { return MethodCharacter }

// Compute implements Backend.
func (c Character) Compute(ctx context.Context, values []string) (*Matrix, error) {
	n := len(values)
	m := NewMatrix(n)
	if n < 2 {
		return m, nil
	}

	prepared := make([][]rune, n)
	for i, v := range values {
		prepared[i] = []rune(c.prepare(v))
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			m.Set(i, j, ratio(prepared[i], prepared[j]))
		}
	}
	return m, nil
}

// TokenSortRatio returns the score Character assigns to a and b.
func TokenSortRatio(a, b string, foldCase bool) float64 {
	c := Character{FoldCase: foldCase}
	return ratio([]rune(c.prepare(a)), []rune(c.prepare(b)))
}

func (c Character) prepare(s string) string {
	s = norm.NFC.String(s)
	if c.FoldCase {
		s = cases.Fold().String(s)
	}
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func ratio(a, b []rune) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	// Substitution costs 2, so the ratio is 2·LCS/(len(a)+len(b)).
	return lev.RatioForStrings(a, b, lev.DefaultOptions)
}
