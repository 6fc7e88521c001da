package transform

import "github.com/matzehuels/causalog/pkg/dag"

// Depths assigns every node its causal depth: the length of the longest edge
// path from any source to it.
//
// Depths uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node sits at one plus the maximum depth of its parents:
//   - Source nodes (no incoming edges) are at depth 0
//   - Every parent is strictly shallower than its children
//
// The renderer uses the result as rank hints so that events caused at the
// same distance from a root line up.
//
// Time complexity is O(V + E).
func Depths(g *dag.Graph) map[string]int {
	ids := g.IDs()
	inDegree := make(map[string]int, len(ids))
	depths := make(map[string]int, len(ids))
	queue := make([]string, 0, len(ids))

	for _, id := range ids {
		degree := g.InDegree(id)
		inDegree[id] = degree
		depths[id] = 0
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if d := depths[curr] + 1; d > depths[child] {
				depths[child] = d
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return depths
}

// Layers groups node ids by depth. Layer i holds the ids at depth i in
// registration order.
func Layers(g *dag.Graph) [][]string {
	depths := Depths(g)
	var layers [][]string
	for _, id := range g.IDs() {
		d := depths[id]
		for len(layers) <= d {
			layers = append(layers, nil)
		}
		layers[d] = append(layers[d], id)
	}
	return layers
}
