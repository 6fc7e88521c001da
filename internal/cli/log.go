package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes to w with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation on completion.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Analyzed 42 records (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Logging hooks
// =============================================================================

// logHooks reports pipeline, cache and store events at debug level. It is
// registered with the observability package in verbose mode.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) OnBuildStart(_ context.Context, nodeCount int) {
	h.logger.Debug("build started", "records", nodeCount)
}

func (h *logHooks) OnBuildComplete(_ context.Context, nodes, edges, rejected int, d time.Duration) {
	h.logger.Debug("build complete", "nodes", nodes, "edges", edges, "rejected", rejected, "duration", d)
}

func (h *logHooks) OnEdgeRejected(_ context.Context, from, to, reason string) {
	h.logger.Debug("edge rejected", "from", from, "to", to, "reason", reason)
}

func (h *logHooks) OnContextComplete(_ context.Context, chainLength int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("context failed", "error", err)
		return
	}
	h.logger.Debug("context complete", "chain", chainLength, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnSessionSaved(_ context.Context, id string, d time.Duration, err error) {
	h.logger.Debug("session saved", "id", id, "duration", d, "error", err)
}

func (h *logHooks) OnSessionLoaded(_ context.Context, id string, found bool, err error) {
	h.logger.Debug("session loaded", "id", id, "found", found, "error", err)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}
