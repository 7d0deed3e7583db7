package cluster

import (
	"context"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var _ Clusterer = ConnectedComponents{}

// ConnectedComponents links every pair with similarity >= Threshold and returns the
// connected components of the resulting graph. Grouping is transitive: a~b and b~c
// put a and c together even when sim(a,c) is low.
type ConnectedComponents struct {
	Threshold float64
}

// Method implements Clusterer.
func (ConnectedComponents) Method() Method { return MethodConnectedComponents }

// Cluster implements Clusterer.
func (cc ConnectedComponents) Cluster(ctx context.Context, in Input) (Partition, error) {
	n := in.Len()
	if n < 2 {
		return Singletons(n), nil
	}
	m := in.Matrix

	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			if m.At(i, j) >= cc.Threshold {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	comps := topo.ConnectedComponents(g)
	p := make(Partition, 0, len(comps))
	for _, comp := range comps {
		c := make([]int, len(comp))
		for k, node := range comp {
			c[k] = int(node.ID())
		}
		p = append(p, c)
	}
	return p.Normalize(), nil
}
