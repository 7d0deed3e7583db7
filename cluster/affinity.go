package cluster

import (
	"context"
	"math"
	"math/rand/v2"
)

// Affinity propagation defaults.
const (
	DefaultDamping         = 0.9
	DefaultMaxIter         = 500
	DefaultConvergenceIter = 15
	DefaultSeed            = 42
)

const (
	machineEpsilon = 2.220446049250313e-16
	tinyNoise      = 100 * 2.2250738585072014e-308
)

var _ Clusterer = AffinityPropagation{}

// AffinityPropagation exchanges responsibility and availability messages until a
// stable set of exemplars emerges. The number of clusters is not fixed up front;
// Preference (the self-similarity) controls it, with lower values yielding fewer
// clusters.
type AffinityPropagation struct {
	// Damping weights the previous message: m = w·old + (1−w)·new. Zero means 0.9.
	Damping float64
	// Preference defaults to the median off-diagonal similarity.
	Preference *float64
	// MaxIter bounds the iterations. Zero means 500.
	MaxIter int
	// ConvergenceIter is the number of iterations the exemplar set must stay unchanged.
	// Zero means 15.
	ConvergenceIter int
	// Seed drives the perturbation that breaks ties between identical rows.
	Seed uint64
}

// Method implements Clusterer.
func (AffinityPropagation) Method() Method { return MethodAffinityPropagation }

func (ap AffinityPropagation) withDefaults() AffinityPropagation {
	if ap.Damping == 0 {
		ap.Damping = DefaultDamping
	}
	if ap.MaxIter <= 0 {
		ap.MaxIter = DefaultMaxIter
	}
	if ap.ConvergenceIter <= 0 {
		ap.ConvergenceIter = DefaultConvergenceIter
	}
	if ap.Seed == 0 {
		ap.Seed = DefaultSeed
	}
	return ap
}

// Cluster implements Clusterer.
func (ap AffinityPropagation) Cluster(ctx context.Context, in Input) (Partition, error) {
	n := in.Len()
	if n < 2 {
		return Singletons(n), nil
	}
	pref := in.Matrix.Summarize().Median
	if ap.Preference != nil {
		pref = *ap.Preference
	}
	return ap.withDefaults().run(ctx, in, pref)
}

func (ap AffinityPropagation) run(ctx context.Context, in Input, pref float64) (Partition, error) {
	n := in.Len()
	damp := ap.Damping

	s := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			if i == k {
				s[i*n+k] = pref
			} else {
				s[i*n+k] = in.Matrix.At(i, k)
			}
		}
	}

	rng := rand.New(rand.NewPCG(ap.Seed, 0))
	for idx := range s {
		s[idx] += (machineEpsilon*s[idx] + tinyNoise) * rng.NormFloat64()
	}

	r := make([]float64, n*n)
	a := make([]float64, n*n)
	colPos := make([]float64, n)

	// history[i] counts how many of the last ConvergenceIter rounds had i as exemplar.
	window := make([][]bool, ap.ConvergenceIter)
	for w := range window {
		window[w] = make([]bool, n)
	}
	history := make([]int, n)
	exemplar := make([]bool, n)

	for it := 0; it < ap.MaxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Responsibilities.
		for i := 0; i < n; i++ {
			row := i * n
			first, second := math.Inf(-1), math.Inf(-1)
			best := -1
			for k := 0; k < n; k++ {
				v := a[row+k] + s[row+k]
				if v > first {
					second = first
					first = v
					best = k
				} else if v > second {
					second = v
				}
			}
			for k := 0; k < n; k++ {
				competitor := first
				if k == best {
					competitor = second
				}
				r[row+k] = damp*r[row+k] + (1-damp)*(s[row+k]-competitor)
			}
		}

		// Availabilities.
		for k := 0; k < n; k++ {
			colPos[k] = 0
			for i := 0; i < n; i++ {
				if i == k {
					colPos[k] += r[i*n+k]
				} else if v := r[i*n+k]; v > 0 {
					colPos[k] += v
				}
			}
		}
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				var next float64
				if i == k {
					next = colPos[k] - r[k*n+k]
				} else {
					own := max(r[i*n+k], 0)
					next = min(0, colPos[k]-own)
				}
				a[i*n+k] = damp*a[i*n+k] + (1-damp)*next
			}
		}

		slot := window[it%ap.ConvergenceIter]
		count := 0
		for k := 0; k < n; k++ {
			e := a[k*n+k]+r[k*n+k] > 0
			exemplar[k] = e
			if it >= ap.ConvergenceIter && slot[k] {
				history[k]--
			}
			slot[k] = e
			if e {
				history[k]++
				count++
			}
		}

		if it >= ap.ConvergenceIter-1 && count > 0 {
			stable := true
			for k := 0; k < n; k++ {
				if history[k] != 0 && history[k] != ap.ConvergenceIter {
					stable = false
					break
				}
			}
			if stable {
				break
			}
		}
	}

	return assign(exemplar, a, r, n), nil
}

// assign maps every point to the exemplar maximising a(i,k)+r(i,k). Exemplars
// represent themselves. Without exemplars every point is a singleton.
func assign(exemplar []bool, a, r []float64, n int) Partition {
	var ks []int
	for k, e := range exemplar {
		if e {
			ks = append(ks, k)
		}
	}
	if len(ks) == 0 {
		return Singletons(n)
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		if exemplar[i] {
			labels[i] = i
			continue
		}
		best, bestScore := ks[0], math.Inf(-1)
		for _, k := range ks {
			if v := a[i*n+k] + r[i*n+k]; v > bestScore {
				best, bestScore = k, v
			}
		}
		labels[i] = best
	}
	return FromLabels(labels)
}
