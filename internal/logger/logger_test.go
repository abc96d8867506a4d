package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_JSONFormatInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("hello", "book_id", "bk-1")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"book_id":"bk-1"`) {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestPrettyHandler_IncludesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.Warn("capped cue list", "dropped", 42)

	out := buf.String()
	if !strings.Contains(out, "capped cue list") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "dropped=42") {
		t.Errorf("missing attribute: %q", out)
	}
	if !strings.Contains(out, "WRN") {
		t.Errorf("missing level tag: %q", out)
	}
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Info("should be dropped")

	if buf.Len() != 0 {
		t.Errorf("info record should be filtered, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.WithError(errTest{}).Error("load failed")

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error attribute, got %q", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
