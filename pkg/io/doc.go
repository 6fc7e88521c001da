// Package io reads log-record batches and writes graph snapshots.
//
// # Overview
//
// Upstream extractors hand over an ordered batch of structured log records,
// each naming the records it believes caused it. This package decodes such
// batches into []dag.LogNode, and encodes the results of an analysis (the
// built graph and the causal context) for other tools.
//
// # Input Formats
//
// Three encodings are accepted, selected with a [Format] or detected from
// the file extension by [DetectFormat]:
//
//   - json: an array of records, or an object with a "nodes" array
//   - jsonl: one record per line (also .ndjson)
//   - yaml: a list of records, or a mapping with a "nodes" list
//
// A record looks like this in every format:
//
//	{"id": "n2", "parents": ["n1"], "level": "ERROR",
//	 "message": "query timeout", "timestamp": "2024-05-01T10:00:02Z"}
//
// Only id is required. Parents may reference ids that never appear in the
// batch; the graph drops those edges and records them as rejected.
// Order matters: it is the registration order the graph uses for root
// resolution and tie-breaking.
//
// # Snapshots
//
// [WriteGraph] encodes a [Snapshot]: nodes in registration order, accepted
// edges, rejected edges, sources and sinks. [ReadSnapshot] decodes it again,
// and [Snapshot.Graph] rebuilds an equivalent graph from the node list.
//
// # Context
//
// [WriteContext] writes the root-cause context as
// {"root_cause": ..., "causal_chain": [...]}, the payload consumed by
// downstream summarizers.
package io
