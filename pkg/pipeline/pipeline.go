// Package pipeline runs causal analysis end to end for the CLI and the API.
//
// A batch of log records goes through three stages:
//
//  1. Build: register the records and link declared parents into a
//     [dag.Graph], rejecting cycles and dangling references
//  2. Extract: resolve the root and pick the longest causal chain, or one
//     chain per source merged into a single context
//  3. Persist: optionally save the graph and its context as a session
//
// Rendering is a separate step ([Runner.Render]) because only some callers
// need it. Extraction and rendering results are cached under keys derived
// from the batch content, so repeated analyses of the same batch are free.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, store, logger)
//	res, err := runner.Analyze(ctx, pipeline.Options{Nodes: nodes, Save: true})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Context.RootCause, res.Session.ID)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/io"
	"github.com/matzehuels/causalog/pkg/session"
)

// =============================================================================
// Default Values
// =============================================================================

// Format constants for rendered output.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// DefaultFormat is used by [Runner.Render] when no format is set.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. The struct doubles as the API request
// body, so only the input and the knobs a client may set are serialized.
type Options struct {
	// Input
	Nodes  []dag.LogNode `json:"nodes"`
	Source string        `json:"source,omitempty"` // file name or client label, stored with the session

	// Extraction
	AllRoots bool   `json:"all_roots,omitempty"` // one chain per source, merged
	Merge    string `json:"merge,omitempty"`     // longest or concat
	Refresh  bool   `json:"refresh,omitempty"`   // ignore cached results

	// Persistence
	Save bool `json:"save,omitempty"`

	// Render
	Format        string `json:"format,omitempty"`
	Detailed      bool   `json:"detailed,omitempty"`
	ShowRejected  bool   `json:"show_rejected,omitempty"`
	HideRedundant bool   `json:"hide_redundant,omitempty"`
	Root          string `json:"root,omitempty"` // draw only what this record caused

	// Runtime options (not serialized)
	CacheTTL   time.Duration `json:"-"`
	SessionTTL time.Duration `json:"-"`
	Logger     *log.Logger   `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the constructed causal graph, rejected edges included.
	Graph *dag.Graph

	// BatchHash is the content hash of the input batch.
	BatchHash string

	// Chain is the selected path from the primary root, by id.
	Chain *causal.Chain

	// Context is the extracted (possibly merged) root-cause context.
	Context *causal.Context

	// Contexts holds one context per source when AllRoots is set.
	Contexts []*causal.Context

	// Session is the saved session, nil unless Save was set.
	Session *session.Session

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the context came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	RejectedCount int
	BuildTime     time.Duration
	ContextTime   time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a render format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// ValidateMerge checks a merge strategy name. Empty means longest.
func ValidateMerge(merge string) error {
	if _, err := causal.ParseMergeStrategy(merge); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid merge: %q (must be one of: longest, concat)", merge)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the input and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Nodes) == 0 {
		return errs.New(errs.ErrCodeEmptyGraph, "no log records")
	}
	if err := io.ValidateNodes(o.Nodes); err != nil {
		return err
	}
	if err := ValidateMerge(o.Merge); err != nil {
		return err
	}
	if o.Merge == "" {
		o.Merge = string(causal.MergeLongest)
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.DefaultTTL
	}
	if o.SessionTTL == 0 {
		o.SessionTTL = session.DefaultTTL
	}
	o.validated = true
	return nil
}

// ContextKeyOpts returns the options that affect the extracted context.
func (o Options) ContextKeyOpts() cache.ContextKeyOpts {
	opts := cache.ContextKeyOpts{AllRoots: o.AllRoots}
	if o.AllRoots {
		opts.Merge = o.Merge
	}
	return opts
}

// RenderKeyOpts returns the options that affect a rendered artifact.
func (o Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:        o.Format,
		Detailed:      o.Detailed,
		ShowRejected:  o.ShowRejected,
		HideRedundant: o.HideRedundant,
		Root:          o.Root,
	}
}
