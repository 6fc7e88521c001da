package dag

import "slices"

// TopologicalOrder returns all node ids such that every parent precedes its
// children. It is a depth-first post-order, reversed: components are entered
// in registration order and children are visited in edge insertion order, so
// the result is deterministic for a given sequence of mutations.
func (g *Graph) TopologicalOrder() []string {
	visited := make(map[string]bool, len(g.order))
	post := make([]string, 0, len(g.order))

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		for _, child := range g.outgoing[id] {
			if !visited[child] {
				visit(child)
			}
		}
		post = append(post, id)
	}

	for _, id := range g.order {
		if !visited[id] {
			visit(id)
		}
	}
	slices.Reverse(post)
	return post
}

// PosMap creates a position lookup map from a slice of node ids.
// It is handy for checking order constraints against [Graph.TopologicalOrder].
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
