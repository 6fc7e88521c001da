// Package nodelink renders causal graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// log records appear as boxes connected by cause→effect arrows. Records of
// equal depth are placed on the same rank so the diagram reads from the
// root cause at the top down to the final effects.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	chain, _ := causal.ResolveChain(g)
//	dot := nodelink.ToDOT(g, nodelink.Options{Chain: chain.IDs, ShowRejected: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include level, message and timestamp
//   - Chain: ids drawn with a red outline and red connecting edges
//   - ShowRejected: rejected edges drawn dashed with their reason
//   - HideRedundant: drop transitively implied edges instead of dotting them
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
