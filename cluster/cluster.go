// Package cluster partitions the distinct values of a column using a similarity
// matrix.
//
// A Partition is a list of clusters of value indices. It covers every index exactly
// once, has no empty cluster, and is ordered by smallest member with members
// ascending. All clusterers here are pure and deterministic.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/canonify/similarity"
)

// Method names a clustering algorithm.
type Method string

const (
	MethodHierarchical        Method = "hierarchical"
	MethodConnectedComponents Method = "connected_components"
	MethodAffinityPropagation Method = "affinity_propagation"
)

// ParseMethod validates s.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodHierarchical, MethodConnectedComponents, MethodAffinityPropagation:
		return m, nil
	default:
		return "", fmt.Errorf("unknown clustering method %q", s)
	}
}

// NeedsThreshold reports whether m requires a similarity threshold.
func (m Method) NeedsThreshold() bool {
	return m == MethodHierarchical || m == MethodConnectedComponents
}

// Input is what a Clusterer operates on.
type Input struct {
	Matrix *similarity.Matrix
	Values []string
}

// Len returns the number of values.
func (in Input) Len() int {
	if in.Matrix != nil {
		return in.Matrix.Len()
	}
	return len(in.Values)
}

// Clusterer turns a similarity matrix into a Partition.
type Clusterer interface {
	Method() Method
	Cluster(ctx context.Context, in Input) (Partition, error)
}

// ErrInvalidPartition is returned by Partition.Validate.
var ErrInvalidPartition = errors.New("invalid partition")

// Partition is a set of disjoint clusters of value indices.
type Partition [][]int

// Singletons returns the partition with every index in its own cluster.
func Singletons(n int) Partition {
	p := make(Partition, n)
	for i := range p {
		p[i] = []int{i}
	}
	return p
}

// FromLabels groups indices by label. Negative labels become singletons.
func FromLabels(labels []int) Partition {
	byLabel := make(map[int][]int)
	var p Partition
	for i, l := range labels {
		if l < 0 {
			p = append(p, []int{i})
			continue
		}
		byLabel[l] = append(byLabel[l], i)
	}
	for _, members := range byLabel {
		p = append(p, members)
	}
	return p.Normalize()
}

// Normalize sorts members ascending and clusters by smallest member, in place.
func (p Partition) Normalize() Partition {
	for _, c := range p {
		sort.Ints(c)
	}
	sort.Slice(p, func(a, b int) bool { return p[a][0] < p[b][0] })
	return p
}

// Validate checks that p covers [0,n) with disjoint non-empty clusters.
func (p Partition) Validate(n int) error {
	seen := make([]bool, n)
	covered := 0
	for ci, c := range p {
		if len(c) == 0 {
			return fmt.Errorf("%w: cluster %d is empty", ErrInvalidPartition, ci)
		}
		for _, idx := range c {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidPartition, idx, n)
			}
			if seen[idx] {
				return fmt.Errorf("%w: index %d appears twice", ErrInvalidPartition, idx)
			}
			seen[idx] = true
			covered++
		}
	}
	if covered != n {
		return fmt.Errorf("%w: %d of %d indices covered", ErrInvalidPartition, covered, n)
	}
	return nil
}

// Labels returns, for each index, the position of its cluster in p.
func (p Partition) Labels(n int) []int {
	labels := make([]int, n)
	for ci, c := range p {
		for _, idx := range c {
			labels[idx] = ci
		}
	}
	return labels
}

// Members resolves p against values.
func (p Partition) Members(values []string) [][]string {
	out := make([][]string, len(p))
	for ci, c := range p {
		out[ci] = make([]string, len(c))
		for k, idx := range c {
			out[ci][k] = values[idx]
		}
	}
	return out
}
