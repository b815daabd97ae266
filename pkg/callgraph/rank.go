package callgraph

import (
	"cmp"
	"slices"
)

// TopNodes returns the n nodes with the largest value of dimension dim,
// heaviest first. Nodes without dim count as 0. Ties keep insertion order, so
// identical input always ranks identically. n larger than the node count
// returns every node; n <= 0 or an empty graph returns an empty slice.
func (g *CallGraph) TopNodes(dim string, n int) []*Node {
	return topN(g.nodeOrder, n, func(x *Node) int64 { return x.Weights.Get(dim) })
}

// TopEdges returns the n edges with the largest value of dimension dim,
// heaviest first, with the same tie and bound rules as [CallGraph.TopNodes].
func (g *CallGraph) TopEdges(dim string, n int) []*Edge {
	return topN(g.edgeOrder, n, func(x *Edge) int64 { return x.Weights.Get(dim) })
}

func topN[T any](items []T, n int, weight func(T) int64) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(weight(b), weight(a))
	})
	return sorted[:min(n, len(sorted))]
}
