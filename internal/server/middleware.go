package server

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/causalog/pkg/cache"
	"github.com/matzehuels/causalog/pkg/observability"
	"github.com/matzehuels/causalog/pkg/pipeline"
)

// TenantHeader scopes cache keys and sessions per client.
const TenantHeader = "X-Tenant"

var tenantRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type tenantKey struct{}

// tenant validates the X-Tenant header and stores it in the request context.
// Requests without the header share the default scope.
func tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := r.Header.Get(TenantHeader)
		if t == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !tenantRe.MatchString(t) {
			writeErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "invalid "+TenantHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, t)))
	})
}

func tenantFrom(ctx context.Context) string {
	t, _ := ctx.Value(tenantKey{}).(string)
	return t
}

// runnerFor returns the runner for the request's tenant. Tenants share the
// cache and session backends but never see each other's keys or sessions.
func (s *Server) runnerFor(r *http.Request) *pipeline.Runner {
	t := tenantFrom(r.Context())
	if t == "" {
		return s.runner
	}
	scoped := *s.runner
	scoped.Keyer = cache.NewScopedKeyer(s.runner.Keyer, "tenant:"+t+":")
	scoped.Tenant = t
	return &scoped
}

// observe reports every request to the HTTP hooks and the access log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
