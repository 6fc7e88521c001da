// Package server exposes the analysis pipeline over HTTP.
//
// Request bodies carry a batch of log records in the same encodings the CLI
// reads (JSON, JSON Lines or YAML, chosen by Content-Type). Analysis options
// are query parameters. Errors are returned as {"code","message"} with the
// status derived from the error code.
//
// Routes:
//
//	POST   /v1/analyze          build the graph and extract the causal context
//	POST   /v1/render           render the graph as SVG or DOT
//	POST   /v1/order            topological order, roots and leaves
//	POST   /v1/paths            all paths between ?src= and ?dst=
//	GET    /v1/sessions         list saved sessions
//	GET    /v1/sessions/{id}    fetch a saved session
//	DELETE /v1/sessions/{id}    delete a saved session
//	GET    /healthz             liveness plus backend pings
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/causalog/pkg/dag"
	"github.com/matzehuels/causalog/pkg/pipeline"
)

// Defaults for [Options].
const (
	DefaultAddr    = ":8080"
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps request bodies.
	maxBodyBytes = 32 << 20

	shutdownTimeout = 5 * time.Second
)

// Options configures a [Server].
type Options struct {
	Addr       string
	Timeout    time.Duration  // per-request deadline
	PathLimits dag.PathLimits // upper bounds for /v1/paths
	Logger     *log.Logger
}

// Server handles HTTP API requests.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server around runner. The runner's cache and store are
// shared by all requests; keys and sessions are scoped per tenant per request.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		runner: runner,
		opts:   opts,
		logger: opts.Logger.WithPrefix("http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))
	r.Use(tenant)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"method "+r.Method+" not allowed for "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/render", s.handleRender)
		r.Post("/order", s.handleOrder)
		r.Post("/paths", s.handlePaths)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
