package sscr

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/sscr/internal/gpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with rendering.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sscr and its GPU mirror.
// By default, sscr produces no log output. Pass nil to restore the silent
// default.
//
// Log levels used by sscr:
//   - [slog.LevelDebug]: per-frame pass timings, pyramid allocation
//   - [slog.LevelInfo]: GPU programs made resident
//   - [slog.LevelWarn]: skipped frames, GPU mirror fallback
//
// Example:
//
//	sscr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger used by sscr.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
