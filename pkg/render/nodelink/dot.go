package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/dag/transform"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds level, message and timestamp to node labels.
	// When false, only the node ID is shown.
	Detailed bool

	// Chain is the causal chain to highlight, root first (see causal.Chain).
	Chain []string

	// ShowRejected draws rejected edges dashed red. Parents that never
	// showed up in the batch are drawn as dashed placeholder nodes.
	ShowRejected bool

	// HideRedundant omits edges implied by longer paths instead of drawing
	// them dotted.
	HideRedundant bool
}

const maxMessageRunes = 60

// ToDOT converts a causal graph to Graphviz DOT format for node-link
// visualization. The resulting DOT string can be rendered using [RenderSVG].
//
// Nodes of equal depth share a rank, so the diagram reads top-down from
// the root cause. Error and warning records are tinted by level.
func ToDOT(g *dag.Graph, opts Options) string {
	onChain := make(map[string]bool, len(opts.Chain))
	chainEdges := make(map[dag.Edge]bool)
	for i, id := range opts.Chain {
		onChain[id] = true
		if i > 0 {
			chainEdges[dag.Edge{From: opts.Chain[i-1], To: id}] = true
		}
	}
	redundant := make(map[dag.Edge]bool)
	for _, e := range transform.RedundantEdges(g) {
		redundant[e] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(*n, fmtLabel(*n, opts.Detailed), onChain[n.ID])
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	for _, layer := range transform.Layers(g) {
		if len(layer) < 2 {
			continue
		}
		ids := make([]string, len(layer))
		for i, id := range layer {
			ids[i] = quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		switch {
		case chainEdges[e]:
			fmt.Fprintf(&buf, "  %s -> %s [color=\"#c0392b\", penwidth=2.5];\n", quote(e.From), quote(e.To))
		case redundant[e] && opts.HideRedundant:
		case redundant[e]:
			fmt.Fprintf(&buf, "  %s -> %s [style=dotted, color=\"#999999\"];\n", quote(e.From), quote(e.To))
		default:
			fmt.Fprintf(&buf, "  %s -> %s;\n", quote(e.From), quote(e.To))
		}
	}

	if opts.ShowRejected {
		writeRejected(&buf, g)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeRejected(buf *bytes.Buffer, g *dag.Graph) {
	rejected := g.Rejected()
	if len(rejected) == 0 {
		return
	}
	buf.WriteString("\n")

	ghosts := make(map[string]bool)
	for _, r := range rejected {
		for _, id := range []string{r.From, r.To} {
			if _, ok := g.Node(id); ok || ghosts[id] {
				continue
			}
			ghosts[id] = true
			fmt.Fprintf(buf, "  %s [label=%s, style=\"rounded,dashed\", color=\"#999999\", fontcolor=\"#999999\"];\n",
				quote(id), quote(id+"\n(missing)"))
		}
	}
	for _, r := range rejected {
		fmt.Fprintf(buf, "  %s -> %s [style=dashed, color=\"#e74c3c\", fontcolor=\"#e74c3c\", fontsize=10, constraint=false, label=%s];\n",
			quote(r.From), quote(r.To), quote(r.Reason.String()))
	}
}

func fmtLabel(n dag.LogNode, detailed bool) string {
	if !detailed {
		return n.ID
	}

	parts := []string{n.ID}
	if n.Level != "" {
		parts = append(parts, "["+strings.ToUpper(n.Level)+"]")
	}
	if n.Message != "" {
		parts = append(parts, truncate(n.Message, maxMessageRunes))
	}
	if n.Timestamp != "" {
		parts = append(parts, n.Timestamp)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n dag.LogNode, label string, onChain bool) []string {
	attrs := []string{"label=" + quote(label)}
	if fill := levelFill(n.Level); fill != "" {
		attrs = append(attrs, "fillcolor="+quote(fill))
	}
	if onChain {
		attrs = append(attrs, "color=\"#c0392b\"", "penwidth=2.5")
	}
	return attrs
}

func levelFill(level string) string {
	switch strings.ToUpper(level) {
	case "FATAL", "CRITICAL", "ERROR":
		return "#fadbd8"
	case "WARN", "WARNING":
		return "#fdebd0"
	case "DEBUG", "TRACE":
		return "#eaecee"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// quote returns s as a DOT double-quoted string. Newlines become DOT's
// centered line break.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg header with a plain
// viewBox so the output scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
