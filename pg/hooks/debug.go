// Package hooks contains bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook logs executed queries through the service logger. Failed queries are
// logged at error level, empty results and slow queries at warn level and, in
// verbose mode, everything else at debug level.
type DebugHook struct {
	enabled            bool
	verbose            bool
	slowQueryThreshold time.Duration
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook creates an enabled, verbose hook with a 100ms slow query threshold
// and applies opts.
func NewDebugHook(opts ...DebugHookOption) *DebugHook {
	hook := &DebugHook{
		enabled:            true,
		verbose:            true,
		slowQueryThreshold: 100 * time.Millisecond, //nolint:mnd // default threshold
	}
	for _, opt := range opts {
		opt(hook)
	}
	return hook
}

func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) { h.enabled = enabled }
}

func WithVerbose(verbose bool) DebugHookOption {
	return func(h *DebugHook) { h.verbose = verbose }
}

// WithSlowQueryThreshold sets the duration above which queries are logged at warn
// level. Zero disables slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) { h.slowQueryThreshold = threshold }
}

func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	level := h.levelFor(event.Err, time.Since(event.StartTime))
	if level == "" {
		return
	}

	entry := logger.Named("bun").
		WithContext(ctx).
		With("query", strings.ReplaceAll(event.Query, `"`, ""), "duration", time.Since(event.StartTime).Round(time.Microsecond))
	if event.Err != nil {
		entry = entry.With("error", event.Err.Error())
	}

	msg := "[bun] " + event.Operation()
	switch level {
	case levelError:
		entry.Error(msg)
	case levelWarn:
		entry.Warn(msg)
	default:
		entry.Debug(msg)
	}
}

const (
	levelDebug = "debug"
	levelWarn  = "warn"
	levelError = "error"
)

// levelFor returns the level a query should be logged at, or "" to skip it.
func (h *DebugHook) levelFor(err error, took time.Duration) string {
	noRows := errors.Is(err, sql.ErrNoRows)
	failed := err != nil && !noRows && !errors.Is(err, sql.ErrTxDone)
	slow := h.slowQueryThreshold > 0 && took >= h.slowQueryThreshold

	switch {
	case failed:
		return levelError
	case noRows, slow:
		return levelWarn
	case h.verbose:
		return levelDebug
	default:
		return ""
	}
}
