// Package logger provides structured logging for local terminals, log
// collectors, and GitHub Actions runners.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatActions = "actions"
)

// New creates a structured logger writing to stderr at the given level.
// The format comes from LOG_FORMAT ("text", "json", "actions"); when unset it
// is "actions" inside GitHub Actions and colored text otherwise. stdout is
// left to the result output.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, DetectFormat(os.Getenv))
}

// DetectFormat picks the log format from the environment.
func DetectFormat(getenv func(string) string) string {
	switch f := strings.ToLower(getenv("LOG_FORMAT")); f {
	case FormatJSON, FormatActions, FormatText:
		return f
	}
	if getenv("GITHUB_ACTIONS") == "true" {
		return FormatActions
	}
	return FormatText
}

// NewWithWriter creates a logger writing to w in the given format.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	l := ParseLevel(level)

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l,
		})
	case FormatActions:
		handler = &actionsHandler{w: w, level: l}
	default:
		handler = &coloredTextHandler{
			w:        w,
			level:    l,
			useColor: shouldUseColor(),
		}
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// shouldUseColor determines if colored output should be used.
func shouldUseColor() bool {
	// Respect NO_COLOR env var (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if logColor := strings.ToLower(os.Getenv("LOG_COLOR")); logColor == "false" || logColor == "0" {
		return false
	}
	return true
}

// coloredTextHandler outputs human-readable colored lines.
type coloredTextHandler struct {
	w        io.Writer
	level    slog.Level
	useColor bool
	attrs    []slog.Attr
}

func (h *coloredTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *coloredTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.paint(&buf, colorGray, r.Time.Format("2006-01-02 15:04:05"))
	buf.WriteString(" ")

	color, label := levelStyle(r.Level)
	h.paint(&buf, color, label)
	buf.WriteString(" ")

	buf.WriteString(r.Message)

	writeAttr := func(a slog.Attr) bool {
		buf.WriteString(" ")
		h.paint(&buf, colorGray, a.Key+"="+a.Value.String())
		return true
	}
	r.Attrs(writeAttr)
	for _, a := range h.attrs {
		writeAttr(a)
	}

	buf.WriteString("\n")
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *coloredTextHandler) paint(buf *strings.Builder, color, s string) {
	if !h.useColor {
		buf.WriteString(s)
		return
	}
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func levelStyle(level slog.Level) (color, label string) {
	switch {
	case level >= slog.LevelError:
		return colorRed + colorBold, "ERROR"
	case level >= slog.LevelWarn:
		return colorYellow, "WARN "
	case level >= slog.LevelInfo:
		return colorBlue, "INFO "
	default:
		return colorCyan, "DEBUG"
	}
}

func (h *coloredTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &coloredTextHandler{
		w:        h.w,
		level:    h.level,
		useColor: h.useColor,
		attrs:    appendAttrs(h.attrs, attrs),
	}
}

func (h *coloredTextHandler) WithGroup(_ string) slog.Handler {
	return h
}

// actionsHandler renders records as GitHub Actions workflow commands so
// warnings and errors show up as annotations on the run.
type actionsHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func (h *actionsHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *actionsHandler) Handle(_ context.Context, r slog.Record) error {
	var msg strings.Builder
	msg.WriteString(r.Message)
	writeAttr := func(a slog.Attr) bool {
		msg.WriteString(" ")
		msg.WriteString(a.Key)
		msg.WriteString("=")
		msg.WriteString(a.Value.String())
		return true
	}
	r.Attrs(writeAttr)
	for _, a := range h.attrs {
		writeAttr(a)
	}

	var line string
	switch {
	case r.Level >= slog.LevelError:
		line = "::error::" + EscapeData(msg.String())
	case r.Level >= slog.LevelWarn:
		line = "::warning::" + EscapeData(msg.String())
	case r.Level >= slog.LevelInfo:
		// Plain lines are shown as-is in the step log.
		line = msg.String()
	default:
		line = "::debug::" + EscapeData(msg.String())
	}

	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *actionsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &actionsHandler{
		w:     h.w,
		level: h.level,
		attrs: appendAttrs(h.attrs, attrs),
	}
}

func (h *actionsHandler) WithGroup(_ string) slog.Handler {
	return h
}

// EscapeData escapes a workflow command message the way the Actions
// toolkit does: %, CR and LF are percent-encoded.
func EscapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

func appendAttrs(base, extra []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(base)+len(extra))
	copy(out, base)
	copy(out[len(base):], extra)
	return out
}
