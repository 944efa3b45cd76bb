package match

import (
	"fmt"

	"github.com/agenthands/recordlink/internal/core/community"
	"github.com/agenthands/recordlink/internal/core/model"
)

// DefaultMaxComponentSize bounds the connected components handed to
// hierarchical clustering. Bigger components are re-split at a stricter cut.
const DefaultMaxComponentSize = 300

// Match partitions records into clusters of likely duplicates. Records not
// linked to any other record above threshold are left out.
func Match(m *Model, records []model.Record, threshold float64) ([]model.Cluster, error) {
	return match(m, records, threshold, DefaultMaxBlockSize, DefaultMaxComponentSize)
}

func match(m *Model, records []model.Record, threshold float64, maxBlock, maxComponent int) ([]model.Cluster, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be in (0,1], got %v", threshold)
	}
	if len(records) < 2 {
		return nil, nil
	}

	pairs := candidatePairs(records, m.Fields, maxBlock)
	scores := scorePairs(m, records, pairs)
	cached := make(map[Pair]float64, len(pairs))
	var edges []community.Edge
	for i, p := range pairs {
		cached[p] = scores[i]
		if scores[i] > threshold {
			edges = append(edges, community.Edge{A: p.I, B: p.J, Score: scores[i]})
		}
	}

	sim := func(a, b int) float64 {
		if a > b {
			a, b = b, a
		}
		if s, ok := cached[Pair{I: a, J: b}]; ok {
			return s
		}
		s := m.Score(records[a], records[b])
		cached[Pair{I: a, J: b}] = s
		return s
	}

	var groups [][]community.Member
	for _, comp := range community.Components(len(records), edges) {
		for _, part := range splitComponent(comp, edges, threshold, maxComponent) {
			groups = append(groups, community.Agglomerate(part, sim, threshold)...)
		}
	}

	clusters := make([]model.Cluster, 0, len(groups))
	for _, g := range groups {
		c := model.Cluster{Members: make([]model.ClusterMember, len(g))}
		for i, mem := range g {
			c.Members[i] = model.ClusterMember{RecordID: records[mem.Node].ID, Confidence: mem.Confidence}
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// splitComponent re-cuts an oversized component with a stricter threshold
// until every part fits. Parts that cannot be split further are kept whole.
func splitComponent(comp []int, edges []community.Edge, threshold float64, maxSize int) [][]int {
	if maxSize <= 0 || len(comp) <= maxSize {
		return [][]int{comp}
	}
	stricter := (threshold + 1) / 2
	if stricter-threshold < 1e-6 {
		return [][]int{comp}
	}

	index := make(map[int]int, len(comp))
	for i, node := range comp {
		index[node] = i
	}
	var local []community.Edge
	for _, e := range edges {
		ia, okA := index[e.A]
		ib, okB := index[e.B]
		if okA && okB && e.Score > stricter {
			local = append(local, community.Edge{A: ia, B: ib, Score: e.Score})
		}
	}

	var parts [][]int
	for _, sub := range community.Components(len(comp), local) {
		nodes := make([]int, len(sub))
		for i, li := range sub {
			nodes[i] = comp[li]
		}
		parts = append(parts, splitComponent(nodes, edges, stricter, maxSize)...)
	}
	return parts
}
