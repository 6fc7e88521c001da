package pipeline

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/dag"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/observability"
	"github.com/matzehuels/causalog/pkg/session"
)

func incident() []dag.LogNode {
	return []dag.LogNode{
		{ID: "n1", Level: "ERROR", Message: "disk full"},
		{ID: "n2", Parents: []string{"n1"}, Message: "write failed"},
		{ID: "n3", Parents: []string{"n2", "ghost"}, Message: "request aborted"},
		{ID: "x1", Message: "cert expired"},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	r := NewRunner(c, nil, session.NewMemoryStore(), quietLogger())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errs.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errs.Code
	}{
		{"empty batch", Options{}, errs.ErrCodeEmptyGraph},
		{"empty id", Options{Nodes: []dag.LogNode{{ID: ""}}}, errs.ErrCodeInvalidNode},
		{"bad merge", Options{Nodes: incident(), Merge: "shortest"}, errs.ErrCodeInvalidInput},
		{"bad format", Options{Nodes: incident(), Format: "gif"}, errs.ErrCodeInvalidFormat},
		{"valid", Options{Nodes: incident()}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errs.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateAndSetDefaults_Defaults(t *testing.T) {
	opts := Options{Nodes: incident()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Merge != "longest" || opts.Format != FormatSVG {
		t.Errorf("Merge = %q, Format = %q", opts.Merge, opts.Format)
	}
	if opts.CacheTTL != cache.DefaultTTL || opts.SessionTTL != session.DefaultTTL {
		t.Errorf("CacheTTL = %v, SessionTTL = %v", opts.CacheTTL, opts.SessionTTL)
	}

	// Idempotent
	opts.Merge = "bogus"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call error = %v", err)
	}
}

func TestContextKeyOpts(t *testing.T) {
	single := Options{Merge: "concat"}.ContextKeyOpts()
	if single.Merge != "" {
		t.Errorf("merge should not affect single-root key, got %q", single.Merge)
	}
	all := Options{AllRoots: true, Merge: "concat"}.ContextKeyOpts()
	if !all.AllRoots || all.Merge != "concat" {
		t.Errorf("ContextKeyOpts() = %+v", all)
	}
}

func TestAnalyze(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Analyze(context.Background(), Options{Nodes: incident()})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if res.Context.RootCause != "disk full" {
		t.Errorf("RootCause = %q, want %q", res.Context.RootCause, "disk full")
	}
	want := []string{"disk full", "write failed", "request aborted"}
	if !slices.Equal(res.Context.CausalChain, want) {
		t.Errorf("CausalChain = %v, want %v", res.Context.CausalChain, want)
	}
	if !slices.Equal(res.Chain.IDs, []string{"n1", "n2", "n3"}) {
		t.Errorf("Chain.IDs = %v", res.Chain.IDs)
	}
	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 2 || res.Stats.RejectedCount != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheHit {
		t.Error("first run should miss the cache")
	}
	if res.Session != nil {
		t.Error("Session should be nil without Save")
	}
	if res.BatchHash == "" {
		t.Error("BatchHash is empty")
	}
}

func TestAnalyze_Cached(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	first, err := r.Analyze(ctx, Options{Nodes: incident()})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Analyze(ctx, Options{Nodes: incident()})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second run should hit the cache")
	}
	if !slices.Equal(first.Context.CausalChain, second.Context.CausalChain) {
		t.Errorf("cached chain %v differs from %v", second.Context.CausalChain, first.Context.CausalChain)
	}

	refreshed, err := r.Analyze(ctx, Options{Nodes: incident(), Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	other, err := r.Analyze(ctx, Options{Nodes: incident(), AllRoots: true})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("different options should not share a cache entry")
	}
}

func TestAnalyze_AllRoots(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())

	res, err := r.Analyze(context.Background(), Options{Nodes: incident(), AllRoots: true, Merge: "concat"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(res.Contexts) != 2 {
		t.Fatalf("len(Contexts) = %d, want 2", len(res.Contexts))
	}
	if res.Context.RootCause != "disk full; cert expired" {
		t.Errorf("RootCause = %q", res.Context.RootCause)
	}
	if len(res.Context.CausalChain) != 4 {
		t.Errorf("CausalChain = %v", res.Context.CausalChain)
	}
}

func TestAnalyze_Save(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Analyze(ctx, Options{Nodes: incident(), Source: "incident.json", Save: true})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if res.Session == nil {
		t.Fatal("Session is nil")
	}

	sess, err := r.LoadSession(ctx, res.Session.ID)
	if err != nil {
		t.Fatalf("LoadSession() error: %v", err)
	}
	if sess.Source != "incident.json" || sess.Context.RootCause != "disk full" {
		t.Errorf("loaded session = %+v", sess.Summary())
	}

	restored, err := FromSession(sess)
	if err != nil {
		t.Fatalf("FromSession() error: %v", err)
	}
	if restored.BatchHash != res.BatchHash {
		t.Error("restored batch hash differs")
	}
	if !slices.Equal(restored.Chain.IDs, res.Chain.IDs) {
		t.Errorf("restored chain = %v, want %v", restored.Chain.IDs, res.Chain.IDs)
	}
}

func TestAnalyze_SaveWithoutStore(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	_, err := r.Analyze(context.Background(), Options{Nodes: incident(), Save: true})
	if !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("error = %v, want UNSUPPORTED", err)
	}
}

func TestLoadSession_Errors(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.LoadSession(ctx, "../etc/passwd"); !errs.Is(err, errs.ErrCodeInvalidSessionID) {
		t.Errorf("bad id error = %v, want INVALID_SESSION_ID", err)
	}
	if _, err := r.LoadSession(ctx, "6f1c2a9e-3b7d-4c1e-9a2f-0d8e5b4c3a21"); !errs.Is(err, errs.ErrCodeSessionNotFound) {
		t.Errorf("missing id error = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestAnalyze_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := NewRunner(nil, nil, nil, quietLogger())

	if _, err := r.Analyze(context.Background(), Options{Nodes: incident(), Logger: logger}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"built graph", "rejected edge", "ghost", "extracted context"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type recordingHooks struct {
	observability.NoopAnalysisHooks
	observability.NoopCacheHooks

	mu       sync.Mutex
	rejected []string
	hits     []string
	misses   []string
	built    int
}

func (h *recordingHooks) OnEdgeRejected(_ context.Context, from, to, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected = append(h.rejected, from+"->"+to+":"+reason)
}

func (h *recordingHooks) OnBuildComplete(context.Context, int, int, int, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.built++
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits = append(h.hits, keyType)
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses = append(h.misses, keyType)
}

func TestAnalyze_Hooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetAnalysisHooks(hooks)
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newTestRunner(t)
	ctx := context.Background()
	for range 2 {
		if _, err := r.Analyze(ctx, Options{Nodes: incident()}); err != nil {
			t.Fatal(err)
		}
	}

	if hooks.built != 2 {
		t.Errorf("OnBuildComplete called %d times, want 2", hooks.built)
	}
	if !slices.Equal(hooks.rejected, []string{"ghost->n3:missing_node", "ghost->n3:missing_node"}) {
		t.Errorf("rejected = %v", hooks.rejected)
	}
	if !slices.Equal(hooks.misses, []string{"context"}) || !slices.Equal(hooks.hits, []string{"context"}) {
		t.Errorf("misses = %v, hits = %v", hooks.misses, hooks.hits)
	}
}

func TestRender_DOT(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Analyze(ctx, Options{Nodes: incident()})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(ctx, res, Options{Format: FormatDOT, ShowRejected: true})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(out)
	if !strings.HasPrefix(dot, "digraph") {
		t.Errorf("output is not DOT:\n%s", dot)
	}
	for _, want := range []string{`"n1" -> "n2" [color="#c0392b"`, `"ghost"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRender_Root(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Analyze(ctx, Options{Nodes: incident()})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(ctx, res, Options{Format: FormatDOT, ShowRejected: true, Root: "n2"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(out)
	for _, want := range []string{`"n2" -> "n3" [color="#c0392b"`, `"ghost"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	for _, absent := range []string{`"n1"`, `"x1"`} {
		if strings.Contains(dot, absent) {
			t.Errorf("DOT should not draw %s outside the component:\n%s", absent, dot)
		}
	}

	if _, err := r.Render(ctx, res, Options{Format: FormatDOT, Root: "zz"}); !errs.Is(err, errs.ErrCodeNodeNotFound) {
		t.Errorf("unknown root error = %v, want NODE_NOT_FOUND", err)
	}
	if a, b := (Options{Format: FormatSVG}).RenderKeyOpts(), (Options{Format: FormatSVG, Root: "n2"}).RenderKeyOpts(); a == b {
		t.Error("root should be part of the render key")
	}
}

func TestSessions_Tenant(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	acme := *r
	acme.Tenant = "acme"
	res, err := acme.Analyze(ctx, Options{Nodes: incident(), Save: true})
	if err != nil {
		t.Fatal(err)
	}
	id := res.Session.ID
	if res.Session.Tenant != "acme" {
		t.Errorf("Session.Tenant = %q, want acme", res.Session.Tenant)
	}

	if _, err := r.LoadSession(ctx, id); !errs.Is(err, errs.ErrCodeSessionNotFound) {
		t.Errorf("foreign load error = %v, want SESSION_NOT_FOUND", err)
	}
	if list, err := r.ListSessions(ctx); err != nil || len(list) != 0 {
		t.Errorf("foreign list = %v, %v; want empty", list, err)
	}
	if err := r.DeleteSession(ctx, id); err != nil {
		t.Errorf("foreign delete error = %v", err)
	}

	if list, err := acme.ListSessions(ctx); err != nil || len(list) != 1 {
		t.Fatalf("owner list = %v, %v; want one session", list, err)
	}
	if err := acme.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := acme.LoadSession(ctx, id); !errs.Is(err, errs.ErrCodeSessionNotFound) {
		t.Errorf("load after delete error = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestRender_Errors(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	ctx := context.Background()

	if _, err := r.Render(ctx, &Result{Graph: dag.New()}, Options{Format: FormatDOT}); !errs.Is(err, errs.ErrCodeEmptyGraph) {
		t.Errorf("empty graph error = %v, want EMPTY_GRAPH", err)
	}
	res := &Result{Graph: dag.Build(incident())}
	if _, err := r.Render(ctx, res, Options{Format: "png"}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("png error = %v, want INVALID_FORMAT", err)
	}
}
