package cluster

import (
	"context"

	"github.com/hupe1980/canonify/internal/queue"
)

var _ Clusterer = Hierarchical{}

// Hierarchical is agglomerative clustering with average linkage. The pair of clusters
// with the highest mean pairwise similarity is merged until that similarity drops
// below Threshold. Ties go to the lowest (a, b) cluster pair, where a cluster is
// identified by its smallest member.
type Hierarchical struct {
	Threshold float64
}

// Method implements Clusterer.
func (Hierarchical) Method() Method { return MethodHierarchical }

// Cluster implements Clusterer.
func (h Hierarchical) Cluster(ctx context.Context, in Input) (Partition, error) {
	n := in.Len()
	if n < 2 {
		return Singletons(n), nil
	}
	m := in.Matrix

	// sums[a*n+b] is the total similarity between clusters a and b.
	sums := make([]float64, n*n)
	members := make([][]int, n)
	version := make([]uint32, n)
	active := make([]bool, n)

	pq := queue.New(n * (n - 1) / 2)
	for i := 0; i < n; i++ {
		members[i] = []int{i}
		active[i] = true
		for j := i + 1; j < n; j++ {
			s := m.At(i, j)
			sums[i*n+j] = s
			sums[j*n+i] = s
			pq.Push(queue.Item{A: i, B: j, Score: s})
		}
	}

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best, _ := pq.Pop()
		if !active[best.A] || !active[best.B] || best.VA != version[best.A] || best.VB != version[best.B] {
			continue
		}
		// Epsilon absorbs floating-point summation noise in the running averages only.
		if best.Score < h.Threshold-queue.Epsilon {
			break
		}

		a, b := best.A, best.B
		members[a] = append(members[a], members[b]...)
		members[b] = nil
		active[b] = false
		version[a]++

		for c := 0; c < n; c++ {
			if !active[c] || c == a {
				continue
			}
			s := sums[a*n+c] + sums[b*n+c]
			sums[a*n+c] = s
			sums[c*n+a] = s

			avg := s / float64(len(members[a])*len(members[c]))
			lo, hi := a, c
			if lo > hi {
				lo, hi = hi, lo
			}
			pq.Push(queue.Item{A: lo, B: hi, Score: avg, VA: version[lo], VB: version[hi]})
		}
	}

	var p Partition
	for i := 0; i < n; i++ {
		if active[i] {
			p = append(p, members[i])
		}
	}
	return p.Normalize(), nil
}
