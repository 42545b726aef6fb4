package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/linkshelf/api/internal/config"
)

// Setup configures the default slog logger based on the provided config.
// Records at or above the configured level are also passed to every extra
// handler, e.g. the OpenTelemetry log bridge.
// This also bridges the standard "log" package via slog.SetDefault (Go 1.22+).
func Setup(cfg config.LogConfig, extra ...slog.Handler) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, cfg, extra...)))
}

// NewHandler builds the handler Setup installs, writing to w.
func NewHandler(w io.Writer, cfg config.LogConfig, extra ...slog.Handler) slog.Handler {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if len(extra) == 0 {
		return handler
	}

	// Extra handlers pick their own levels; the configured level gates them all.
	gate := slogmulti.NewEnabledInlineMiddleware(func(ctx context.Context, l slog.Level, next func(context.Context, slog.Level) bool) bool {
		return l >= level && next(ctx, l)
	})
	return slogmulti.Pipe(gate).Handler(slogmulti.Fanout(append([]slog.Handler{handler}, extra...)...))
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
