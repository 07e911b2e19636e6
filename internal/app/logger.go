package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/config"
)

// NewLogger builds the process logger and installs it as the slog default.
// Output is stderr so the CLI keeps stdout for JSON results. Every record
// carries the component ("server" or "cli") and the build version.
//
// Format "json" is for production; "text" adds source locations.
// Level is debug, info, warn or error (case-insensitive), default info.
func NewLogger(cfg config.LogConfig, component string) *slog.Logger {
	logger := newLogger(os.Stderr, cfg, component)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig, component string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("component", component),
		slog.String("version", Version),
	)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
