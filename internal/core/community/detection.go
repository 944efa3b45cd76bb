package community

import "sort"

// Edge links two nodes (record indices) with a match score.
type Edge struct {
	A, B  int
	Score float64
}

// Components returns the connected components of size >= 2 in the graph
// formed by edges over nodes 0..n-1. Nodes inside a component are sorted and
// components are ordered by their smallest node.
func Components(n int, edges []Edge) [][]int {
	adj := make(map[int][]int)
	for _, e := range edges {
		if e.A < 0 || e.B < 0 || e.A >= n || e.B >= n || e.A == e.B {
			continue
		}
		adj[e.A] = append(adj[e.A], e.B)
		adj[e.B] = append(adj[e.B], e.A)
	}

	visited := make([]bool, n)
	var components [][]int
	for start := 0; start < n; start++ {
		if visited[start] || len(adj[start]) == 0 {
			continue
		}
		component := []int{}
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, u)
			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		if len(component) >= 2 {
			sort.Ints(component)
			components = append(components, component)
		}
	}
	return components
}
