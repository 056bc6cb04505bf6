package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "default text", env: map[string]string{}, want: FormatText},
		{name: "explicit json", env: map[string]string{"LOG_FORMAT": "JSON"}, want: FormatJSON},
		{name: "actions runner", env: map[string]string{"GITHUB_ACTIONS": "true"}, want: FormatActions},
		{
			name: "explicit format wins on runner",
			env:  map[string]string{"GITHUB_ACTIONS": "true", "LOG_FORMAT": "json"},
			want: FormatJSON,
		},
		{name: "unknown format ignored", env: map[string]string{"LOG_FORMAT": "xml"}, want: FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFormat(func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestActionsHandler(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", FormatActions)

	log.Debug("probing", "source", "local-history")
	log.Info("resolved changed files", "count", 3)
	log.Warn("change source failed", "error", "line1\nline2 100%")
	log.Error("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"::debug::probing source=local-history",
		"resolved changed files count=3",
		"::warning::change source failed error=line1%0Aline2 100%25",
		"::error::boom",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestActionsHandler_LevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", FormatActions).With("run", "42")

	log.Info("hidden")
	log.Warn("shown")

	if got := buf.String(); got != "::warning::shown run=42\n" {
		t.Errorf("output = %q", got)
	}
}

func TestColoredTextHandler_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", FormatText)
	log.Info("changed directories", "count", 2)

	got := buf.String()
	if strings.Contains(got, "\033[") {
		t.Errorf("expected no ANSI codes, got %q", got)
	}
	if !strings.Contains(got, "INFO  changed directories count=2") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestEscapeData(t *testing.T) {
	if got := EscapeData("a%b\r\nc"); got != "a%25b%0D%0Ac" {
		t.Errorf("EscapeData() = %q", got)
	}
}
