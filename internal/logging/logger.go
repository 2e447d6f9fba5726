package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// DebugEnv enables debug logging when set to a true value.
const DebugEnv = "WAYPOINT_DEBUG"

// New creates the application logger.
// It writes to Stderr because Stdout carries the hook protocol.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a text logger writing to w.
// It standardizes common keys (e.g., "error" -> "err").
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
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

// Level picks debug when requested by flag or by WAYPOINT_DEBUG, warn otherwise.
func Level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	if v, err := strconv.ParseBool(os.Getenv(DebugEnv)); err == nil && v {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
