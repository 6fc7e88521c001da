package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/observability"
	"github.com/matzehuels/causalog/pkg/session"
)

// Runner encapsulates pipeline execution with caching and persistence.
// Both CLI and API use it so the two entry points behave the same.
//
// The Runner holds no per-run state; multiple goroutines can share one
// Runner with different options. Each run builds its own graph.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  session.Store // may be nil; Save then fails
	Logger *log.Logger

	// Tenant owns the sessions this runner saves. Sessions of other
	// tenants are invisible to it. Empty is the default scope.
	Tenant string
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, store session.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Logger: logger,
	}
}

// analysis is the cached form of the extraction stage.
type analysis struct {
	Chain    *causal.Chain     `json:"chain"`
	Context  *causal.Context   `json:"context"`
	Contexts []*causal.Context `json:"contexts,omitempty"`
}

// Analyze builds the graph for opts.Nodes, extracts its causal context and,
// if opts.Save is set, stores the result as a session.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	hash, err := cache.BatchHash(opts.Nodes)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "hash batch")
	}
	result := &Result{BatchHash: hash}

	// Stage 1: Build
	buildStart := time.Now()
	g := r.Build(ctx, opts.Nodes)
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.Size()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.RejectedCount = len(g.Rejected())

	logger.Info("built graph",
		"nodes", g.Size(),
		"edges", g.EdgeCount(),
		"rejected", len(g.Rejected()),
		"duration", result.Stats.BuildTime)
	for _, rej := range g.Rejected() {
		logger.Debug("rejected edge", "from", rej.From, "to", rej.To, "reason", rej.Reason)
	}

	// Stage 2: Extract
	contextStart := time.Now()
	a, hit, err := r.extract(ctx, g, hash, opts)
	result.Stats.ContextTime = time.Since(contextStart)
	chainLen := 0
	if a != nil {
		chainLen = len(a.Context.CausalChain)
	}
	observability.Analysis().OnContextComplete(ctx, chainLen, result.Stats.ContextTime, err)
	if err != nil {
		return nil, err
	}
	result.Chain = a.Chain
	result.Context = a.Context
	result.Contexts = a.Contexts
	result.CacheHit = hit

	logger.Info("extracted context",
		"root", a.Chain.Root,
		"chain", len(a.Chain.IDs),
		"cached", hit,
		"duration", result.Stats.ContextTime)

	// Stage 3: Persist
	if opts.Save {
		sess, err := r.Save(ctx, opts.Source, g, a.Context, opts.SessionTTL)
		if err != nil {
			return nil, err
		}
		result.Session = sess
		logger.Info("saved session", "id", sess.ID)
	}

	return result, nil
}

// Build constructs the graph and reports construction events to the
// analysis hooks.
func (r *Runner) Build(ctx context.Context, nodes []dag.LogNode) *dag.Graph {
	hooks := observability.Analysis()
	hooks.OnBuildStart(ctx, len(nodes))
	start := time.Now()

	g := dag.Build(nodes)

	for _, rej := range g.Rejected() {
		hooks.OnEdgeRejected(ctx, rej.From, rej.To, rej.Reason.String())
	}
	hooks.OnBuildComplete(ctx, g.Size(), g.EdgeCount(), len(g.Rejected()), time.Since(start))
	return g
}

// extract returns the cached analysis for the batch or computes and caches
// it. A cache entry that fails to decode is treated as a miss.
func (r *Runner) extract(ctx context.Context, g *dag.Graph, hash string, opts Options) (*analysis, bool, error) {
	key := r.Keyer.ContextKey(hash, opts.ContextKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var a analysis
			if err := json.Unmarshal(data, &a); err == nil && a.Chain != nil && a.Context != nil {
				observability.Cache().OnCacheHit(ctx, "context")
				return &a, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "context")
	}

	a, err := analyze(g, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(a); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "context", len(data))
		}
	}
	return a, false, nil
}

func analyze(g *dag.Graph, opts Options) (*analysis, error) {
	chain, err := causal.ResolveChain(g)
	if err != nil {
		return nil, contextError(err)
	}
	a := &analysis{Chain: chain}
	if !opts.AllRoots {
		a.Context = chain.Context(g)
		return a, nil
	}

	ctxs, err := causal.BuildContexts(g)
	if err != nil {
		return nil, contextError(err)
	}
	merged, err := causal.Merge(ctxs, causal.MergeStrategy(opts.Merge))
	if err != nil {
		return nil, contextError(err)
	}
	a.Context = merged
	a.Contexts = ctxs
	return a, nil
}

func contextError(err error) error {
	switch {
	case errors.Is(err, causal.ErrEmptyGraph):
		return errs.Wrap(errs.ErrCodeEmptyGraph, err, "no log records")
	case errors.Is(err, causal.ErrUnknownStrategy):
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "unknown merge strategy")
	default:
		return errs.Wrap(errs.ErrCodeInternal, err, "extract context")
	}
}

// Save stores g and its context as a new session.
func (r *Runner) Save(ctx context.Context, source string, g *dag.Graph, c *causal.Context, ttl time.Duration) (*session.Session, error) {
	if r.Store == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "no session store configured")
	}
	sess, err := session.New(source, g, c, ttl)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "create session")
	}
	sess.Tenant = r.Tenant

	start := time.Now()
	err = r.Store.Set(ctx, sess)
	observability.Store().OnSessionSaved(ctx, sess.ID, time.Since(start), err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "save session")
	}
	return sess, nil
}

// LoadSession fetches a session by id. A missing or expired session is a
// SESSION_NOT_FOUND error.
func (r *Runner) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	if r.Store == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "no session store configured")
	}
	if err := errs.ValidateSessionID(id); err != nil {
		return nil, err
	}

	sess, err := r.Store.Get(ctx, id)
	observability.Store().OnSessionLoaded(ctx, id, sess != nil, err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "load session")
	}
	if sess == nil || sess.Tenant != r.Tenant {
		return nil, errs.New(errs.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return sess, nil
}

// ListSessions returns the live sessions of the runner's tenant, newest first.
func (r *Runner) ListSessions(ctx context.Context) ([]session.Summary, error) {
	if r.Store == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "no session store configured")
	}
	all, err := r.Store.List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "list sessions")
	}
	list := make([]session.Summary, 0, len(all))
	for _, s := range all {
		if s.Tenant == r.Tenant {
			list = append(list, s)
		}
	}
	return list, nil
}

// DeleteSession removes a session of the runner's tenant. Deleting a missing
// session, or one owned by another tenant, changes nothing and is not an
// error.
func (r *Runner) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.LoadSession(ctx, id); err != nil {
		if errs.Is(err, errs.ErrCodeSessionNotFound) {
			return nil
		}
		return err
	}
	if err := r.Store.Delete(ctx, id); err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "delete session %s", id)
	}
	return nil
}

// Close releases the cache and the session store.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		err = errors.Join(err, r.Store.Close())
	}
	return err
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// FromSession rebuilds the analysis result of a stored session so it can be
// rendered or browsed again. The chain is re-resolved from the graph.
func FromSession(sess *session.Session) (*Result, error) {
	g := sess.Graph()
	chain, err := causal.ResolveChain(g)
	if err != nil {
		return nil, contextError(err)
	}
	hash, err := cache.BatchHash(sess.Nodes)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "hash batch")
	}
	return &Result{
		Graph:     g,
		BatchHash: hash,
		Chain:     chain,
		Context:   sess.Context,
		Session:   sess,
		Stats: Stats{
			NodeCount:     g.Size(),
			EdgeCount:     g.EdgeCount(),
			RejectedCount: len(g.Rejected()),
		},
	}, nil
}
