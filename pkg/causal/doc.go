// Package causal turns a causal graph into a root-cause narrative.
//
// # Overview
//
// A [dag.Graph] tells which log record caused which. Downstream consumers,
// such as an LLM prompt or an incident ticket, want something smaller: the
// message that started it all and the sequence of effects that followed.
// [BuildContext] produces exactly that as a [Context].
//
// # Chain Selection
//
// The chain starts at the root ([dag.Graph.Root]) and follows the longest
// causal path from it. Longest paths are found by relaxing edges in
// topological order, which is linear in the size of the graph. When several
// leaves share the maximal depth, or a node has several equally deep
// predecessors, the node discovered first by a depth-first walk from the root
// wins. Children are walked in edge insertion order, so the result is
// deterministic for a given input batch.
//
// # Multiple Incidents
//
// A batch may hold unrelated incidents. [BuildContexts] returns one context
// per source and [Merge] folds them back into one, either keeping the longest
// ([MergeLongest]) or concatenating them ([MergeConcat]).
//
// [dag.Graph]: github.com/matzehuels/causalog/pkg/dag.Graph
// [dag.Graph.Root]: github.com/matzehuels/causalog/pkg/dag.Graph.Root
package causal
