package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
)

// Snapshot is the serialized form of a built graph.
type Snapshot struct {
	Nodes    []dag.LogNode      `json:"nodes"`
	Edges    []dag.Edge         `json:"edges"`
	Rejected []dag.RejectedEdge `json:"rejected,omitempty"`
	Root     string             `json:"root,omitempty"`
	Roots    []string           `json:"roots"`
	Leaves   []string           `json:"leaves"`
}

// NewSnapshot captures the current state of g.
func NewSnapshot(g *dag.Graph) *Snapshot {
	s := &Snapshot{
		Nodes:    make([]dag.LogNode, 0, g.Size()),
		Edges:    g.Edges(),
		Rejected: g.Rejected(),
		Roots:    g.Roots(),
		Leaves:   g.Leaves(),
	}
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, *n)
	}
	if s.Edges == nil {
		s.Edges = []dag.Edge{}
	}
	s.Root, _ = g.Root()
	return s
}

// Graph rebuilds a graph from the snapshot's node list. Node parent lists
// already reflect every accepted edge, so the rebuilt graph has the same
// edges; rejected edges are recorded again as they are re-attempted.
func (s *Snapshot) Graph() *dag.Graph {
	return dag.Build(s.Nodes)
}

// WriteGraph encodes a snapshot of g as indented JSON.
func WriteGraph(w io.Writer, g *dag.Graph) error {
	return writeJSON(w, NewSnapshot(g))
}

// ExportGraph writes a snapshot of g to a JSON file at path.
// This is a convenience wrapper around [WriteGraph] for file-based output.
func ExportGraph(g *dag.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(f, g)
}

// ReadSnapshot decodes a snapshot written by [WriteGraph].
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &s, nil
}

// WriteNodes encodes a batch as a JSON array that [ReadNodes] accepts.
func WriteNodes(w io.Writer, nodes []dag.LogNode) error {
	if nodes == nil {
		nodes = []dag.LogNode{}
	}
	return writeJSON(w, nodes)
}

// WriteContext encodes a causal context as indented JSON.
func WriteContext(w io.Writer, ctx *causal.Context) error {
	return writeJSON(w, ctx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
