package transform

import "github.com/matzehuels/causalog/pkg/dag"

// RedundantEdges returns the edges implied by longer causal paths, in edge
// insertion order. If A→B and B→C exist, then A→C is redundant: the upstream
// extractor saw an indirect cause and reported it as direct.
//
// The graph is not modified. Renderers draw these edges de-emphasized so the
// direct chain stands out.
func RedundantEdges(g *dag.Graph) []dag.Edge {
	// Only a node with two or more children can carry a shortcut. For each
	// such node, everything strictly below its children is reachable through
	// a longer path, so a direct edge into that set is redundant.
	skip := make(map[dag.Edge]bool)
	for _, src := range g.IDs() {
		children := g.Children(src)
		if len(children) < 2 {
			continue
		}
		below := descendants(g, children)
		for _, child := range children {
			if below[child] {
				skip[dag.Edge{From: src, To: child}] = true
			}
		}
	}
	if len(skip) == 0 {
		return nil
	}

	var redundant []dag.Edge
	for _, e := range g.Edges() {
		if skip[e] {
			redundant = append(redundant, e)
		}
	}
	return redundant
}

// Reduce returns a copy of g without its redundant edges. Node data,
// including declared parents, is carried over unchanged.
func Reduce(g *dag.Graph) *dag.Graph {
	skip := make(map[dag.Edge]bool)
	for _, e := range RedundantEdges(g) {
		skip[e] = true
	}

	out := dag.New()
	for _, n := range g.Nodes() {
		out.AddNode(*n)
	}
	for _, e := range g.Edges() {
		if !skip[e] {
			out.AddEdge(e.From, e.To)
		}
	}
	return out
}

// descendants returns every node reachable from one of starts by a path of at
// least one edge.
func descendants(g *dag.Graph, starts []string) map[string]bool {
	seen := make(map[string]bool)
	stack := make([]string, 0, len(starts))
	for _, id := range starts {
		stack = append(stack, g.Children(id)...)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.Children(id)...)
	}
	return seen
}
