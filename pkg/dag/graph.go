package dag

import (
	"errors"
	"slices"
)

var (
	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is detected.
	// Graphs built through [Graph.AddEdge] never contain one; seeing this error
	// means the adjacency indices were corrupted.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrInconsistentParents is returned by [Graph.Validate] when an edge
	// (p, c) exists but p is missing from c's parent list.
	ErrInconsistentParents = errors.New("edge parent missing from child's parent list")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// LogNode is a single structured log record with its declared causal parents.
// Records are produced by an external extractor; the parent references are
// untrusted and may point at ids that never show up in the batch.
type LogNode struct {
	ID        string   `json:"id" yaml:"id" bson:"id"`
	Parents   []string `json:"parents" yaml:"parents" bson:"parents"`
	Level     string   `json:"level,omitempty" yaml:"level,omitempty" bson:"level,omitempty"`
	Message   string   `json:"message" yaml:"message" bson:"message"`
	Timestamp string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// IsRoot reports whether the node declares no causal parents.
func (n LogNode) IsRoot() bool { return len(n.Parents) == 0 }

func (n LogNode) clone() *LogNode {
	n.Parents = slices.Clone(n.Parents)
	return &n
}

// Edge is a directed causal link: From caused To.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// EdgeResult describes the outcome of an edge insertion attempt.
type EdgeResult int

const (
	// EdgeAdded means the edge was recorded.
	EdgeAdded EdgeResult = iota
	// EdgeExists means the identical edge was already present; nothing changed.
	EdgeExists
	// EdgeRejectedCycle means the edge would have closed a cycle.
	EdgeRejectedCycle
	// EdgeRejectedMissingNode means the source or target id is not registered.
	EdgeRejectedMissingNode
)

var edgeResultNames = map[EdgeResult]string{
	EdgeAdded:               "added",
	EdgeExists:              "exists",
	EdgeRejectedCycle:       "cycle",
	EdgeRejectedMissingNode: "missing_node",
}

// String returns a short, stable label for the result.
func (r EdgeResult) String() string {
	if s, ok := edgeResultNames[r]; ok {
		return s
	}
	return "unknown"
}

// Rejected reports whether the result is a rejection (as opposed to an
// added or already-present edge).
func (r EdgeResult) Rejected() bool {
	return r == EdgeRejectedCycle || r == EdgeRejectedMissingNode
}

// RejectedEdge records a declared causal link that was dropped during
// construction, together with the reason.
type RejectedEdge struct {
	From   string     `json:"from" bson:"from"`
	To     string     `json:"to" bson:"to"`
	Reason EdgeResult `json:"reason" bson:"reason"`
}

// MarshalText encodes the reason as its label so snapshots stay readable.
func (r EdgeResult) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a label written by MarshalText.
func (r *EdgeResult) UnmarshalText(b []byte) error {
	for k, v := range edgeResultNames {
		if v == string(b) {
			*r = k
			return nil
		}
	}
	return errors.New("unknown edge result " + string(b))
}

// Graph is a causal graph over log records. It owns the node table and the
// edge set and keeps the two acyclic at all times: every insertion goes
// through [WouldCreateCycle] first.
//
// The zero value is not usable - use [New] or [Build].
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*LogNode
	order    []string // registration order
	edges    []Edge   // insertion order
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs (accepted edges only)
	rejected []RejectedEdge

	root      string
	rootFound bool
	rootValid bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*LogNode),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// Build creates a graph from an ordered batch of records. See [Graph.Build].
func Build(nodes []LogNode) *Graph {
	g := New()
	g.Build(nodes)
	return g
}

// Build registers every record, then attempts every declared parent edge in
// input order. Edges that reference unknown ids or would close a cycle are
// dropped and logged in [Graph.Rejected]; the result is the best acyclic
// approximation of the declared structure.
func (g *Graph) Build(nodes []LogNode) {
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, n := range nodes {
		for _, p := range n.Parents {
			g.AddEdge(p, n.ID)
		}
	}
}

// AddNode registers n, or replaces the data of an existing node with the same
// id. The size only grows for ids not seen before. Replacing a node keeps its
// accepted incoming edges listed in the new parent list.
func (g *Graph) AddNode(n LogNode) {
	node := n.clone()
	if _, exists := g.nodes[node.ID]; !exists {
		g.order = append(g.order, node.ID)
	}
	for _, p := range g.incoming[node.ID] {
		if !slices.Contains(node.Parents, p) {
			node.Parents = append(node.Parents, p)
		}
	}
	g.nodes[node.ID] = node
	g.invalidate()
}

// AddEdge adds the causal edge parent→child and reports whether it was added.
// It never fails loudly: unknown ids, duplicates and would-be cycles simply
// return false. Use [Graph.Link] for the reason.
func (g *Graph) AddEdge(parent, child string) bool {
	return g.Link(parent, child) == EdgeAdded
}

// Link is AddEdge with a tagged result. Rejections are appended to the
// rejected-edge log; an already-present edge is not a rejection.
func (g *Graph) Link(parent, child string) EdgeResult {
	res := g.link(parent, child)
	if res.Rejected() {
		g.rejected = append(g.rejected, RejectedEdge{From: parent, To: child, Reason: res})
	}
	return res
}

func (g *Graph) link(parent, child string) EdgeResult {
	c, okC := g.nodes[child]
	if _, okP := g.nodes[parent]; !okP || !okC {
		return EdgeRejectedMissingNode
	}
	e := Edge{From: parent, To: child}
	if _, ok := g.edgeSet[e]; ok {
		return EdgeExists
	}
	if WouldCreateCycle(g, parent, child) {
		return EdgeRejectedCycle
	}

	g.edges = append(g.edges, e)
	g.edgeSet[e] = struct{}{}
	g.outgoing[parent] = append(g.outgoing[parent], child)
	g.incoming[child] = append(g.incoming[child], parent)
	if !slices.Contains(c.Parents, parent) {
		c.Parents = append(c.Parents, parent)
	}
	g.invalidate()
	return EdgeAdded
}

func (g *Graph) invalidate() {
	g.rootValid = false
	g.rootFound = false
	g.root = ""
}

// Node returns the node with the given id. The pointer refers to graph-owned
// data and must be treated as read-only.
func (g *Graph) Node(id string) (*LogNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in registration order.
func (g *Graph) Nodes() []*LogNode {
	nodes := make([]*LogNode, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// IDs returns all node ids in registration order. The returned slice should
// not be modified.
func (g *Graph) IDs() []string { return g.order }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// HasEdge reports whether the edge parent→child is present.
func (g *Graph) HasEdge(parent, child string) bool {
	_, ok := g.edgeSet[Edge{From: parent, To: child}]
	return ok
}

// Rejected returns a copy of the rejected-edge log in attempt order.
func (g *Graph) Rejected() []RejectedEdge { return slices.Clone(g.rejected) }

// Size returns the number of distinct node ids.
func (g *Graph) Size() int { return len(g.nodes) }

// EdgeCount returns the number of accepted edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the ids this node caused, in edge insertion order.
// The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the ids with an accepted edge into this node. Unlike
// LogNode.Parents it never lists rejected or dangling references.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of accepted outgoing edges.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of accepted incoming edges.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Validate checks graph integrity: every edge connects registered nodes, is
// mirrored in the child's parent list, and no cycle exists.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		_, okS := g.nodes[e.From]
		dst, okD := g.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if !slices.Contains(dst.Parents, e.From) {
			return ErrInconsistentParents
		}
	}
	if HasCycle(g) {
		return ErrGraphHasCycle
	}
	return nil
}
