package community

import (
	"math"
	"sort"
)

// Member is a node assigned to a cluster. Confidence is the lowest linkage
// score among the merges that brought the node into its cluster.
type Member struct {
	Node       int
	Confidence float64
}

// SimilarityFunc returns the match score between two nodes.
type SimilarityFunc func(a, b int) float64

// Agglomerate runs average-linkage hierarchical clustering over nodes and
// stops once no two clusters link above threshold. Only clusters with two or
// more nodes are returned, ordered by smallest node.
func Agglomerate(nodes []int, sim SimilarityFunc, threshold float64) [][]Member {
	k := len(nodes)
	if k < 2 {
		return nil
	}

	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, k)
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			s := sim(nodes[i], nodes[j])
			sums[i][j] = s
			sums[j][i] = s
		}
	}

	members := make([][]int, k) // cluster slot -> positions in nodes
	conf := make([]float64, k)
	alive := make([]bool, k)
	for i := range members {
		members[i] = []int{i}
		conf[i] = math.Inf(1)
		alive[i] = true
	}

	for {
		bi, bj, best := -1, -1, threshold
		for i := 0; i < k; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < k; j++ {
				if !alive[j] {
					continue
				}
				avg := sums[i][j] / float64(len(members[i])*len(members[j]))
				if avg > best {
					bi, bj, best = i, j, avg
				}
			}
		}
		if bi < 0 {
			break
		}

		for _, p := range members[bi] {
			conf[p] = math.Min(conf[p], best)
		}
		for _, p := range members[bj] {
			conf[p] = math.Min(conf[p], best)
		}
		members[bi] = append(members[bi], members[bj]...)
		members[bj] = nil
		alive[bj] = false
		for c := 0; c < k; c++ {
			if c == bi || !alive[c] {
				continue
			}
			sums[bi][c] += sums[bj][c]
			sums[c][bi] = sums[bi][c]
		}
	}

	var clusters [][]Member
	for i := 0; i < k; i++ {
		if !alive[i] || len(members[i]) < 2 {
			continue
		}
		cluster := make([]Member, 0, len(members[i]))
		for _, p := range members[i] {
			cluster = append(cluster, Member{Node: nodes[p], Confidence: conf[p]})
		}
		sort.Slice(cluster, func(a, b int) bool { return cluster[a].Node < cluster[b].Node })
		clusters = append(clusters, cluster)
	}
	sort.Slice(clusters, func(a, b int) bool { return clusters[a][0].Node < clusters[b][0].Node })
	return clusters
}
