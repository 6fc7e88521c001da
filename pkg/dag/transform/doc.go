// Package transform provides read-only derivations over a causal graph.
//
// # Overview
//
// The causal graph itself only enforces acyclicity. Presenting it, or
// narrowing an analysis to one incident, needs a few extra views:
//
//   - [Depths] and [Layers]: longest-path layering from the sources
//   - [RedundantEdges] and [Reduce]: transitive reduction
//   - [Subgraph], [Reachable] and [Component]: induced subgraphs
//
// None of these functions modify their input. [Reduce], [Subgraph] and
// [Component] return fresh graphs built through the public dag API, so the
// acyclicity guarantees carry over.
//
// # Transitive Reduction
//
// Upstream extractors often report an indirect cause as a direct parent: if
// A→B and B→C exist, A→C adds nothing to the narrative. [RedundantEdges]
// identifies these edges by walking below every node with two or more
// children. Memory is O(V+E); time is O(V+E) per such node.
package transform
