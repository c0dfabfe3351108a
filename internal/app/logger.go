package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
)

// NewLogger creates the process logger on stderr and installs it as the
// slog default.
//
// Format "json" produces structured output for production; anything else
// produces text with source locations. Level is one of debug, info, warn,
// error (case-insensitive) and defaults to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	isJSON := strings.EqualFold(cfg.Format, "json")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: !isJSON,
	}

	if isJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
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
