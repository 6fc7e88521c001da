// Package dag provides the causal graph that ties structured log records
// together by their declared parent references.
//
// # Overview
//
// Log records arrive from an upstream extractor that guesses which earlier
// record caused each one. Those guesses are noisy: they reference ids that
// never appear, repeat themselves, or point backwards in a way that would
// close a loop. [Graph] absorbs all of that and keeps a directed acyclic
// graph at every point in time.
//
// # Basic Usage
//
// Build a graph from an ordered batch with [Build], or incrementally with
// [Graph.AddNode] and [Graph.AddEdge]:
//
//	g := dag.Build([]dag.LogNode{
//	    {ID: "n1", Message: "disk full"},
//	    {ID: "n2", Parents: []string{"n1"}, Message: "write failed"},
//	})
//	root, _ := g.Root()           // "n1"
//	order := g.TopologicalOrder() // [n1 n2]
//
// [Build] is two-phase: every record is registered first, then every declared
// parent edge is attempted in input order. This lets records reference
// parents that appear later in the batch.
//
// # Edge Rejection
//
// [Graph.AddEdge] returns false instead of failing when an edge cannot be
// added. [Graph.Link] returns an [EdgeResult] with the reason, and every
// rejection is kept in [Graph.Rejected]. A record's Parents field may
// therefore list ids that have no matching edge.
//
// # Queries
//
//   - [Graph.FindRoot], [Graph.Root]: first parentless node in registration order
//   - [Graph.Roots], [Graph.Leaves]: all sources and sinks
//   - [Graph.TopologicalOrder]: parents before children, deterministic
//   - [Graph.AllPaths], [Graph.AllPathsWithLimits]: simple path enumeration
//   - [HasCycle], [Graph.Validate]: invariant checks
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must serialize
// access; the usual pattern is one graph per analysis.
//
// # Related Packages
//
// The [transform] subpackage provides read-only derivations (depth layering,
// redundant edge detection, subgraphs). The causal package turns a graph
// into a root-cause narrative.
//
// [transform]: github.com/matzehuels/causalog/pkg/dag/transform
package dag
