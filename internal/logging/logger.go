// Package logging builds the application loggers. Everything goes to stderr
// so stdout stays free for converted documents and machine-readable output.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the application logger at the given level. The "error" key is
// rewritten to "err" so log lines stay consistent across packages.
func New(level slog.Level) *slog.Logger {
	return NewAt(os.Stderr, level)
}

// NewAt is New writing to an arbitrary destination. Tests use it to capture
// output.
func NewAt(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Level maps the debug flag to a slog level.
func Level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
