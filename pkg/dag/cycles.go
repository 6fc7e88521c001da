package dag

// Adjacency is the read-only view walked by the cycle checks. [Graph]
// implements it; tests and callers holding raw adjacency data can too.
type Adjacency interface {
	// IDs returns every node id in a stable order.
	IDs() []string
	// Children returns the targets of the node's outgoing edges.
	Children(id string) []string
}

// WouldCreateCycle reports whether adding src→dst to an acyclic graph would
// close a cycle. That happens exactly when src == dst or dst already reaches
// src, so a single reachability search from dst is enough.
func WouldCreateCycle(g Adjacency, src, dst string) bool {
	if src == dst {
		return true
	}
	visited := map[string]bool{dst: true}
	stack := []string{dst}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range g.Children(curr) {
			if child == src {
				return true
			}
			if !visited[child] {
				visited[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// HasCycle runs a full depth-first search with white/gray/black coloring and
// reports whether any back edge exists. It is a diagnostic: graphs mutated
// only through [Graph.AddEdge] always return false.
func HasCycle(g Adjacency) bool {
	const (
		white = iota
		gray
		black
	)

	ids := g.IDs()
	color := make(map[string]int, len(ids))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}
