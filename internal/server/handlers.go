package server

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/causalog/pkg/buildinfo"
	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/dag/transform"
	errs "github.com/matzehuels/causalog/pkg/errors"
	"github.com/matzehuels/causalog/pkg/io"
	"github.com/matzehuels/causalog/pkg/pipeline"
)

// AnalyzeResponse is the body of POST /v1/analyze.
type AnalyzeResponse struct {
	Context   *causal.Context    `json:"context"`
	Contexts  []*causal.Context  `json:"contexts,omitempty"`
	Root      string             `json:"root"`
	Chain     []string           `json:"chain"`
	Roots     []string           `json:"roots"`
	Rejected  []dag.RejectedEdge `json:"rejected"`
	Stats     StatsResponse      `json:"stats"`
	Cached    bool               `json:"cached"`
	BatchHash string             `json:"batch_hash"`
	SessionID string             `json:"session_id,omitempty"`
}

// StatsResponse summarizes graph construction.
type StatsResponse struct {
	Nodes    int   `json:"nodes"`
	Edges    int   `json:"edges"`
	Rejected int   `json:"rejected"`
	BuildUS  int64 `json:"build_us"`
}

// OrderResponse is the body of POST /v1/order.
type OrderResponse struct {
	Order  []string   `json:"order"`
	Roots  []string   `json:"roots"`
	Leaves []string   `json:"leaves"`
	Layers [][]string `json:"layers"`
}

// PathsResponse is the body of POST /v1/paths.
type PathsResponse struct {
	Src    string         `json:"src"`
	Dst    string         `json:"dst"`
	Paths  [][]string     `json:"paths"`
	Count  int            `json:"count"`
	Limits dag.PathLimits `json:"limits"`
}

// =============================================================================
// Analysis
// =============================================================================

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	opts, err := s.readOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runnerFor(r).Analyze(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := AnalyzeResponse{
		Context:  res.Context,
		Contexts: res.Contexts,
		Root:     res.Chain.Root,
		Chain:    res.Chain.IDs,
		Roots:    res.Graph.Roots(),
		Rejected: res.Graph.Rejected(),
		Stats: StatsResponse{
			Nodes:    res.Stats.NodeCount,
			Edges:    res.Stats.EdgeCount,
			Rejected: res.Stats.RejectedCount,
			BuildUS:  res.Stats.BuildTime.Microseconds(),
		},
		Cached:    res.CacheHit,
		BatchHash: res.BatchHash,
	}
	if resp.Rejected == nil {
		resp.Rejected = []dag.RejectedEdge{}
	}
	if res.Session != nil {
		resp.SessionID = res.Session.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.readOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Save = false

	runner := s.runnerFor(r)
	res, err := runner.Analyze(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := runner.Render(r.Context(), res, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "image/svg+xml"
	if opts.Format == pipeline.FormatDOT {
		contentType = "text/vnd.graphviz; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// =============================================================================
// Graph queries
// =============================================================================

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{
		Order:  g.TopologicalOrder(),
		Roots:  g.Roots(),
		Leaves: g.Leaves(),
		Layers: transform.Layers(g),
	})
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src, dst := q.Get("src"), q.Get("dst")
	if src == "" || dst == "" {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "src and dst are required"))
		return
	}
	lim, err := s.pathLimits(q.Get("max_length"), q.Get("max_paths"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g, err := s.readGraph(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, id := range []string{src, dst} {
		if _, ok := g.Node(id); !ok {
			s.writeError(w, r, errs.New(errs.ErrCodeNodeNotFound, "node %q not found", id))
			return
		}
	}

	paths := g.AllPathsWithLimits(src, dst, lim)
	if paths == nil {
		paths = [][]string{}
	}
	writeJSON(w, http.StatusOK, PathsResponse{
		Src:    src,
		Dst:    dst,
		Paths:  paths,
		Count:  len(paths),
		Limits: lim,
	})
}

// pathLimits combines the query with the server's caps; the smaller
// non-zero value wins.
func (s *Server) pathLimits(maxLength, maxPaths string) (dag.PathLimits, error) {
	lim := s.opts.PathLimits
	for _, p := range []struct {
		name string
		raw  string
		dst  *int
	}{
		{"max_length", maxLength, &lim.MaxLength},
		{"max_paths", maxPaths, &lim.MaxPaths},
	} {
		if p.raw == "" {
			continue
		}
		n, err := strconv.Atoi(p.raw)
		if err != nil || n < 0 {
			return lim, errs.New(errs.ErrCodeInvalidInput, "%s must be a non-negative integer", p.name)
		}
		if n > 0 && (*p.dst == 0 || n < *p.dst) {
			*p.dst = n
		}
	}
	return lim, nil
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.runnerFor(r).ListSessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.runnerFor(r).LoadSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.runnerFor(r).DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Health
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	for name, backend := range map[string]any{"cache": s.runner.Cache, "store": s.runner.Store} {
		p, ok := backend.(pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"checks":  checks,
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Request decoding
// =============================================================================

// readNodes decodes the request body as a batch. The encoding follows the
// Content-Type; anything unrecognized is read as JSON.
func readNodes(w http.ResponseWriter, r *http.Request) ([]dag.LogNode, error) {
	format := io.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/x-ndjson", "application/jsonl", "application/x-jsonlines":
			format = io.FormatJSONL
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = io.FormatYAML
		}
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	return io.ReadNodes(body, format)
}

func (s *Server) readGraph(w http.ResponseWriter, r *http.Request) (*dag.Graph, error) {
	nodes, err := readNodes(w, r)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errs.New(errs.ErrCodeEmptyGraph, "no log records")
	}
	if err := io.ValidateNodes(nodes); err != nil {
		return nil, err
	}
	return s.runner.Build(r.Context(), nodes), nil
}

// readOptions combines the body batch with query parameters.
func (s *Server) readOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	nodes, err := readNodes(w, r)
	if err != nil {
		return pipeline.Options{}, err
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Nodes:  nodes,
		Source: q.Get("source"),
		Merge:  q.Get("merge"),
		Format: q.Get("format"),
		Root:   q.Get("root"),
		Logger: s.logger,
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"all_roots", &opts.AllRoots},
		{"save", &opts.Save},
		{"refresh", &opts.Refresh},
		{"detailed", &opts.Detailed},
		{"show_rejected", &opts.ShowRejected},
		{"hide_redundant", &opts.HideRedundant},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "%s must be a boolean", f.name)
		}
		*f.dst = v
	}
	if opts.Source == "" {
		opts.Source = "api"
	}
	return opts, nil
}
