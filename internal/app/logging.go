package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/keytap/internal/config"
	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
)

// ParseLogLevel parses a level name. Unknown names yield info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum level to output.
	Level slog.Level
	// Format is "text" or "json".
	Format string
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// LoggerConfigFrom builds a logger configuration from settings.
func LoggerConfigFrom(s config.LogSettings, w io.Writer) LoggerConfig {
	return LoggerConfig{
		Level:  ParseLogLevel(s.Level),
		Format: s.Format,
		Output: w,
	}
}

// NewLogger creates a slog logger.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// NullLogger returns a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// DecisionLogger returns an observer that logs every decision at debug
// level.
func DecisionLogger(logger *slog.Logger) input.Observer {
	return input.ObserverFunc(func(ev key.RawEvent, d input.Decision) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		attrs := []any{
			"key", d.Key.String(),
			"type", ev.Type.String(),
			"app", d.App,
			"verdict", d.Verdict.String(),
			"action", d.Action.String(),
		}
		if d.Rule != nil {
			attrs = append(attrs, "rule", d.Rule.String())
		}
		if d.SnapshotID != "" {
			attrs = append(attrs, "snapshot", d.SnapshotID)
		}
		logger.Debug("decision", attrs...)
	})
}
