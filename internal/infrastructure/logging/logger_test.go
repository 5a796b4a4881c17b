package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json to stdout", config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"defaults", config.LoggingConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if logger := New(tt.cfg, "1.0.0"); logger == nil {
				t.Fatal("New() = nil, want logger")
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			if got := levelFor(tt.input); got != tt.want {
				t.Errorf("levelFor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, "1.0.0")

	child := logger.With("component", "poller")
	if child == nil {
		t.Fatal("With() = nil, want child logger")
	}
	if child == logger {
		t.Error("With() returned the parent logger, want a copy")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() = nil, want logger")
	}
}

func TestLogger_OutputCarriesDefaultFields(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "benchcore"),
			slog.String("version", "test"),
		})

	logger := &Logger{Logger: slog.New(handler)}
	logger.Info("reading recorded", "instrument", "dmm-1")

	output := buf.String()
	if !strings.Contains(output, "benchcore") {
		t.Error("output missing service field")
	}
	if !strings.Contains(output, "test") {
		t.Error("output missing version field")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing JSON output: %v", err)
	}
	if entry["msg"] != "reading recorded" {
		t.Errorf("msg = %v, want %q", entry["msg"], "reading recorded")
	}
	if entry["instrument"] != "dmm-1" {
		t.Errorf("instrument = %v, want %q", entry["instrument"], "dmm-1")
	}
}
