package causal

import (
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/causalog/pkg/dag"
)

var (
	// ErrEmptyGraph is returned when a context is requested for a nil or
	// empty graph.
	ErrEmptyGraph = errors.New("causal: graph is empty")

	// ErrUnknownStrategy is returned by [Merge] for an unrecognized strategy.
	ErrUnknownStrategy = errors.New("causal: unknown merge strategy")
)

// Context is the root-cause narrative handed to downstream consumers.
type Context struct {
	RootCause   string   `json:"root_cause" yaml:"root_cause" bson:"root_cause"`
	CausalChain []string `json:"causal_chain" yaml:"causal_chain" bson:"causal_chain"`
}

// Chain is the selected root-to-leaf path through the graph, by id.
type Chain struct {
	Root string   `json:"root"`
	IDs  []string `json:"ids"`
}

// Leaf returns the last id of the chain, the final observed effect.
func (c *Chain) Leaf() string {
	if len(c.IDs) == 0 {
		return ""
	}
	return c.IDs[len(c.IDs)-1]
}

// Context converts the chain into messages read from g.
func (c *Chain) Context(g *dag.Graph) *Context {
	ctx := &Context{CausalChain: make([]string, 0, len(c.IDs))}
	for _, id := range c.IDs {
		n, _ := g.Node(id)
		ctx.CausalChain = append(ctx.CausalChain, n.Message)
	}
	if n, ok := g.Node(c.Root); ok {
		ctx.RootCause = n.Message
	}
	return ctx
}

// BuildContext resolves the root, selects the longest causal path from it and
// returns the root message together with the messages along that path.
// It is a pure function of the graph state.
func BuildContext(g *dag.Graph) (*Context, error) {
	chain, err := ResolveChain(g)
	if err != nil {
		return nil, err
	}
	return chain.Context(g), nil
}

// ResolveChain is [BuildContext] without the message lookup.
//
// The root is [dag.Graph.Root]. When every node declared at least one parent
// (all of them dangling or rejected), the first source of [dag.Graph.Roots]
// is used instead; a non-empty acyclic graph always has one.
func ResolveChain(g *dag.Graph) (*Chain, error) {
	if g == nil || g.Size() == 0 {
		return nil, ErrEmptyGraph
	}
	root, ok := g.Root()
	if !ok {
		root = g.Roots()[0]
	}
	return chainFrom(g, root), nil
}

// ChainFrom returns the longest causal path starting at root. Returns nil if
// root is not in g.
func ChainFrom(g *dag.Graph, root string) *Chain {
	if g == nil {
		return nil
	}
	if _, ok := g.Node(root); !ok {
		return nil
	}
	return chainFrom(g, root)
}

// chainFrom relaxes edges in topological order to find, for every node
// reachable from root, the longest path reaching it. The chain ends at the
// deepest node; ties go to the node discovered first by a depth-first walk
// from root, and the same rule picks between equally long predecessors.
func chainFrom(g *dag.Graph, root string) *Chain {
	discovered := discoveryOrder(g, root)

	dist := map[string]int{root: 0}
	pred := map[string]string{}
	for _, id := range g.TopologicalOrder() {
		d, reached := dist[id]
		if !reached {
			continue
		}
		for _, child := range g.Children(id) {
			cd, seen := dist[child]
			switch {
			case !seen || d+1 > cd:
				dist[child] = d + 1
				pred[child] = id
			case d+1 == cd && discovered[id] < discovered[pred[child]]:
				pred[child] = id
			}
		}
	}

	leaf := root
	for id, d := range dist {
		best := dist[leaf]
		if d > best || (d == best && discovered[id] < discovered[leaf]) {
			leaf = id
		}
	}

	ids := []string{leaf}
	for id := leaf; id != root; {
		id = pred[id]
		ids = append(ids, id)
	}
	slices.Reverse(ids)
	return &Chain{Root: root, IDs: ids}
}

func discoveryOrder(g *dag.Graph, root string) map[string]int {
	order := map[string]int{}
	var visit func(id string)
	visit = func(id string) {
		order[id] = len(order)
		for _, child := range g.Children(id) {
			if _, seen := order[child]; !seen {
				visit(child)
			}
		}
	}
	visit(root)
	return order
}

// BuildContexts returns one context per source of the graph, in registration
// order. Use it when the batch describes several independent incidents.
func BuildContexts(g *dag.Graph) ([]*Context, error) {
	if g == nil || g.Size() == 0 {
		return nil, ErrEmptyGraph
	}
	roots := g.Roots()
	out := make([]*Context, 0, len(roots))
	for _, r := range roots {
		out = append(out, chainFrom(g, r).Context(g))
	}
	return out, nil
}

// MergeStrategy selects how [Merge] combines several chains into one context.
type MergeStrategy string

const (
	// MergeLongest keeps the longest chain; the earliest one wins ties.
	MergeLongest MergeStrategy = "longest"
	// MergeConcat joins root causes with "; " and concatenates the chains.
	MergeConcat MergeStrategy = "concat"
)

// Merge combines contexts, typically from [BuildContexts], into one.
func Merge(contexts []*Context, strategy MergeStrategy) (*Context, error) {
	if len(contexts) == 0 {
		return nil, ErrEmptyGraph
	}
	switch strategy {
	case MergeLongest, "":
		best := contexts[0]
		for _, c := range contexts[1:] {
			if len(c.CausalChain) > len(best.CausalChain) {
				best = c
			}
		}
		return &Context{RootCause: best.RootCause, CausalChain: slices.Clone(best.CausalChain)}, nil
	case MergeConcat:
		causes := make([]string, len(contexts))
		var chain []string
		for i, c := range contexts {
			causes[i] = c.RootCause
			chain = append(chain, c.CausalChain...)
		}
		return &Context{RootCause: strings.Join(causes, "; "), CausalChain: chain}, nil
	default:
		return nil, ErrUnknownStrategy
	}
}

// ParseMergeStrategy validates a strategy name.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch ms := MergeStrategy(s); ms {
	case MergeLongest, MergeConcat:
		return ms, nil
	case "":
		return MergeLongest, nil
	default:
		return "", ErrUnknownStrategy
	}
}
