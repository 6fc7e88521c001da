package dag

import "slices"

// PathLimits caps path enumeration. Zero values mean unlimited.
type PathLimits struct {
	MaxLength int // maximum number of nodes in a single path
	MaxPaths  int // stop after this many paths
}

// AllPaths returns every simple directed path from src to dst. A path from a
// node to itself is the single path [src]. Returns nil when dst is not
// reachable or either id is unknown.
//
// The number of paths can grow exponentially with branching; prefer
// [Graph.AllPathsWithLimits] on graphs of unknown shape.
func (g *Graph) AllPaths(src, dst string) [][]string {
	return g.AllPathsWithLimits(src, dst, PathLimits{})
}

// AllPathsWithLimits is [Graph.AllPaths] with caller-supplied caps. Paths are
// produced in depth-first order following edge insertion order.
func (g *Graph) AllPathsWithLimits(src, dst string, lim PathLimits) [][]string {
	if _, ok := g.nodes[src]; !ok {
		return nil
	}
	if _, ok := g.nodes[dst]; !ok {
		return nil
	}

	var (
		paths  [][]string
		path   []string
		onPath = make(map[string]bool)
	)

	full := func() bool { return lim.MaxPaths > 0 && len(paths) >= lim.MaxPaths }

	var walk func(id string)
	walk = func(id string) {
		path = append(path, id)
		onPath[id] = true
		defer func() {
			path = path[:len(path)-1]
			onPath[id] = false
		}()

		if id == dst {
			paths = append(paths, slices.Clone(path))
			return
		}
		if lim.MaxLength > 0 && len(path) >= lim.MaxLength {
			return
		}
		for _, child := range g.outgoing[id] {
			if full() {
				return
			}
			if !onPath[child] {
				walk(child)
			}
		}
	}

	walk(src)
	return paths
}
