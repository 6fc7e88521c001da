package transform

import "github.com/matzehuels/causalog/pkg/dag"

// Subgraph returns the graph induced by ids: the listed nodes in g's
// registration order plus every edge of g between two of them. Unknown ids
// are ignored.
func Subgraph(g *dag.Graph, ids []string) *dag.Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	out := dag.New()
	for _, n := range g.Nodes() {
		if keep[n.ID] {
			out.AddNode(*n)
		}
	}
	for _, e := range g.Edges() {
		if keep[e.From] && keep[e.To] {
			out.AddEdge(e.From, e.To)
		}
	}
	return out
}

// Reachable returns src followed by every node reachable from it, in
// depth-first discovery order. Returns nil if src is unknown.
func Reachable(g *dag.Graph, src string) []string {
	if _, ok := g.Node(src); !ok {
		return nil
	}
	seen := map[string]bool{}
	var order []string
	var visit func(id string)
	visit = func(id string) {
		seen[id] = true
		order = append(order, id)
		for _, child := range g.Children(id) {
			if !seen[child] {
				visit(child)
			}
		}
	}
	visit(src)
	return order
}

// Component returns the subgraph reachable from root. Rejected links into the
// component are replayed on the copy, so they keep their reason: a component
// is closed under children, which makes every cycle rejection reproducible.
func Component(g *dag.Graph, root string) *dag.Graph {
	ids := Reachable(g, root)
	out := Subgraph(g, ids)
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for _, r := range g.Rejected() {
		if keep[r.To] {
			out.Link(r.From, r.To)
		}
	}
	return out
}
