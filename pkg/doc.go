// Package pkg provides the core libraries for Causalog root-cause extraction.
//
// # Overview
//
// Causalog turns a batch of structured log records, whose causal parents were
// linked by an upstream extractor, into a causal graph and extracts the root
// cause together with the longest chain of effects leading away from it. The
// pkg directory is organized into four areas:
//
//  1. [dag] and [causal] - Domain logic (graph construction, context extraction)
//  2. [cache], [session], [config] - Infrastructure (caching, persistence, settings)
//  3. [pipeline] - Orchestration (build → extract → persist, plus render)
//  4. [io] and [render/nodelink] - Serialization and visualization
//
// # Architecture
//
// The typical data flow:
//
//	JSON / JSON Lines / YAML batch
//	         ↓
//	    [io] package (decode and validate records)
//	         ↓
//	    [dag] package (cycle-safe graph, rejected links recorded)
//	         ↓
//	    [causal] package (root, longest chain, merged contexts)
//	         ↓
//	    context JSON, session, DOT/SVG
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/causalog/pkg/causal"
//	    "github.com/matzehuels/causalog/pkg/dag"
//	)
//
//	g := dag.Build([]dag.LogNode{
//	    {ID: "n1", Message: "disk full"},
//	    {ID: "n2", Parents: []string{"n1"}, Message: "write failed"},
//	})
//	ctx, err := causal.BuildContext(g)
//	// ctx.RootCause == "disk full"
//	// ctx.CausalChain == ["disk full", "write failed"]
//
// # Main Packages
//
// ## Core Domain Logic
//
// [dag] - Causal graph over log records. Every edge insertion is checked for
// cycles first; links that would close a cycle or reference an unknown record
// are rejected and kept in a log with their reason. Provides root selection,
// topological order and bounded path enumeration.
//
// [dag/transform] - Graph transformations: depths and layers, transitive
// reduction, subgraphs and reachable components.
//
// [causal] - Context extraction: root cause plus the longest causal path,
// one context per root, and merge strategies (longest, concat).
//
// ## Infrastructure
//
// [cache] - Result cache keyed by a content hash of the batch. File backend
// for the CLI, Redis for shared deployments, a null cache for tests.
//
// [session] - Saved analyses. File, MongoDB and in-memory backends.
//
// [config] - TOML settings with environment overrides.
//
// [observability] - Hooks for build, cache, store and HTTP events.
//
// [errors] - Coded errors with HTTP status mapping and input validation.
//
// ## Orchestration
//
// [pipeline] - The analysis pipeline shared by the CLI and the HTTP API:
// validate, build, extract (cached), persist, render (cached SVG).
//
// ## Serialization and Visualization
//
// [io] - Batch decoding (JSON, JSON Lines, YAML) and graph snapshots.
//
// [render/nodelink] - Graphviz diagrams with the chain highlighted.
//
// # Testing
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/dag/...         # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [dag]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/dag/transform
// [causal]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/causal
// [cache]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/causalog/pkg/render/nodelink
package pkg
