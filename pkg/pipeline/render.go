package pipeline

import (
	"context"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/dag/transform"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/observability"
	"github.com/matzehuels/causalog/pkg/render/nodelink"
)

// Render draws the analyzed graph in opts.Format with the selected chain
// highlighted. SVG output is cached under the batch hash; DOT is cheap and
// always regenerated.
//
// With opts.Root set, only the records reachable from that root are drawn and
// the highlighted chain is the longest path starting there.
func (r *Runner) Render(ctx context.Context, res *Result, opts Options) ([]byte, error) {
	artifact, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifact, err
}

// RenderWithCacheInfo is [Runner.Render] that also reports whether the
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts Options) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}
	if res == nil || res.Graph == nil || res.Graph.Size() == 0 {
		return nil, false, errs.New(errs.ErrCodeEmptyGraph, "nothing to render")
	}

	g := res.Graph
	var chain []string
	if res.Chain != nil {
		chain = res.Chain.IDs
	}
	if opts.Root != "" {
		if err := errs.ValidateNodeID(opts.Root); err != nil {
			return nil, false, err
		}
		if _, ok := g.Node(opts.Root); !ok {
			return nil, false, errs.New(errs.ErrCodeNodeNotFound, "node %q not found", opts.Root)
		}
		g = transform.Component(g, opts.Root)
		chain = causal.ChainFrom(g, opts.Root).IDs
	}
	dot := RenderDOT(g, chain, opts)
	if opts.Format == FormatDOT {
		return []byte(dot), false, nil
	}

	key := r.Keyer.RenderKey(res.BatchHash, opts.RenderKeyOpts())
	if res.BatchHash != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "render")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeInternal, err, "render svg")
	}

	if res.BatchHash != "" {
		ttl := opts.CacheTTL
		if ttl == 0 {
			ttl = cache.DefaultTTL
		}
		if err := r.Cache.Set(ctx, key, svg, ttl); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "render", len(svg))
		}
	}
	return svg, false, nil
}

// RenderDOT returns the DOT source for g with chain highlighted. It needs no
// runner and no cache.
func RenderDOT(g *dag.Graph, chain []string, opts Options) string {
	return nodelink.ToDOT(g, nodelink.Options{
		Detailed:      opts.Detailed,
		Chain:         chain,
		ShowRejected:  opts.ShowRejected,
		HideRedundant: opts.HideRedundant,
	})
}
