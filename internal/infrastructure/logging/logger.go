package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
)

// Logger wraps slog.Logger with the daemon's default attributes. Every
// record carries service=benchcore and the build version so bench logs
// can be filtered when aggregated. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging config section: level filter,
// json or text format, stdout or stderr.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: levelFor(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "benchcore"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// levelFor maps a config string to a slog level, defaulting to info.
func levelFor(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a child logger carrying extra default attributes.
//
//	pollerLog := logger.With("component", "poller")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a stdout JSON logger at info level, for the window
// between process start and config load.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
