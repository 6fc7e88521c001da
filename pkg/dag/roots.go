package dag

// FindRoot scans nodes in registration order and returns the first one whose
// parent list is empty. A node that declared parents counts as non-root even
// when every declared edge was rejected. Returns false if no such node exists.
//
// In a forest only the first parentless node is returned; use [Graph.Roots]
// to get all of them.
func (g *Graph) FindRoot() (string, bool) {
	for _, id := range g.order {
		if g.nodes[id].IsRoot() {
			return id, true
		}
	}
	return "", false
}

// Root is the memoized form of [Graph.FindRoot]. The cached answer is dropped
// on every structural mutation.
func (g *Graph) Root() (string, bool) {
	if !g.rootValid {
		g.root, g.rootFound = g.FindRoot()
		g.rootValid = true
	}
	return g.root, g.rootFound
}

// Roots returns every node without an accepted incoming edge, in registration
// order. A non-empty graph always has at least one.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns every node without outgoing edges, in registration order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
