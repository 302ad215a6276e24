// Package logging builds the service slog logger from console and file sinks.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"signalconfig/internal/config"
)

// Attribute keys shared by the packages that log draft activity.
const (
	KeyEditor     = "editor"
	KeyStorageKey = "key"
	KeyEventID    = "event_id"
	KeyError      = "error"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBlue    = "\x1b[34m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
	ansiRed     = "\x1b[31m"
	ansiGray    = "\x1b[90m"
)

// attrPattern matches one key=value pair of slog text output, quoted values included.
var attrPattern = regexp.MustCompile(`\b([a-z][a-z0-9_.]*)=("(?:[^"\\]|\\.)*"|\S*)`)

// valueColors highlights the identifiers used to correlate a draft across log lines.
var valueColors = map[string]string{
	KeyEditor:     ansiMagenta,
	KeyStorageKey: ansiGreen,
	KeyEventID:    ansiGreen,
	KeyError:      ansiRed,
}

// New builds a logger for configured sinks with the console sink on stdout.
// Params: cfg contains console/file sink settings.
// Returns: slog logger, cleanup callback, and setup error.
func New(cfg config.LogConfig) (*slog.Logger, func(), error) {
	return NewWithConsole(cfg, os.Stdout)
}

// NewWithConsole builds a logger whose console sink writes to console.
// Params: sink settings and console writer (stdout in production, a buffer in tests).
// Returns: slog logger, cleanup callback, and setup error.
func NewWithConsole(cfg config.LogConfig, console io.Writer) (*slog.Logger, func(), error) {
	var (
		handlers []slog.Handler
		closers  []io.Closer
	)
	closeAll := func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}

	if cfg.Console.Enabled {
		dst := console
		if strings.EqualFold(cfg.Console.Format, "line") {
			dst = &colorLineWriter{dst: console}
		}
		handler, err := newHandler(cfg.Console, dst, true)
		if err != nil {
			return nil, nil, fmt.Errorf("build console handler: %w", err)
		}
		handlers = append(handlers, handler)
	}

	if cfg.File.Enabled {
		file, err := os.OpenFile(cfg.File.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %q: %w", cfg.File.Path, err)
		}
		closers = append(closers, file)
		handler, err := newHandler(cfg.File, file, false)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("build file handler: %w", err)
		}
		handlers = append(handlers, handler)
	}

	switch len(handlers) {
	case 0:
		return nil, nil, fmt.Errorf("no log sinks enabled")
	case 1:
		return slog.New(handlers[0]), closeAll, nil
	default:
		return slog.New(teeHandler{handlers: handlers}), closeAll, nil
	}
}

// Discard returns a logger that drops every record.
// Params: none.
// Returns: logger for tests and CLI commands without sinks.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newHandler creates the slog handler for one sink.
// Params: sink settings, destination writer, and whether timestamps are dropped (console only).
// Returns: text or JSON handler, or error for unknown level/format.
func newHandler(sink config.LogSinkConfig, dst io.Writer, dropTime bool) (slog.Handler, error) {
	level, err := parseLevel(sink.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if dropTime {
		opts.ReplaceAttr = func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		}
	}

	switch strings.ToLower(strings.TrimSpace(sink.Format)) {
	case "line":
		return slog.NewTextHandler(dst, opts), nil
	case "json":
		return slog.NewJSONHandler(dst, opts), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", sink.Format)
	}
}

// parseLevel converts configuration level into slog.Level.
// Params: value is a level name.
// Returns: slog level or error.
func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported level %q", value)
	}
	return level, nil
}

// teeHandler fans one record out to every sink.
type teeHandler struct {
	handlers []slog.Handler
}

// Enabled checks if at least one sink accepts level.
// Params: ctx context and level.
// Returns: true when any sink accepts the level.
func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range t.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every enabled sink.
// Params: ctx context and record to write.
// Returns: first sink error; later sinks still receive the record.
func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range t.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs applies attrs to each sink.
func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

// WithGroup applies group to each sink.
func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (t teeHandler) each(derive func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, 0, len(t.handlers))
	for _, handler := range t.handlers {
		next = append(next, derive(handler))
	}
	return teeHandler{handlers: next}
}

// colorLineWriter colors slog text lines for terminals.
// Params: dst is the console writer.
// Returns: io.Writer wrapping dst.
type colorLineWriter struct {
	dst io.Writer
}

// Write tints the line by level and highlights correlation attributes.
// Params: payload is one rendered slog text line.
// Returns: length of payload on success or write error.
func (w *colorLineWriter) Write(payload []byte) (int, error) {
	line := string(payload)
	base := levelColor(line)
	if base == "" {
		return w.dst.Write(payload)
	}

	rendered := base + colorAttrs(line, base) + ansiReset
	if _, err := io.WriteString(w.dst, rendered); err != nil {
		return 0, err
	}
	return len(payload), nil
}

// levelColor maps the rendered level token to a base tint.
// Params: line is one rendered slog line.
// Returns: ANSI color sequence or empty string for unrecognized lines.
func levelColor(line string) string {
	switch {
	case strings.Contains(line, "level=DEBUG"):
		return ansiGray
	case strings.Contains(line, "level=INFO"):
		return ansiBlue
	case strings.Contains(line, "level=WARN"):
		return ansiYellow
	case strings.Contains(line, "level=ERROR"):
		return ansiRed
	default:
		return ""
	}
}

// colorAttrs tints attribute keys and the values of correlation keys.
// Params: line text and base tint restored after each highlight.
// Returns: line with ANSI highlights.
func colorAttrs(line, base string) string {
	return attrPattern.ReplaceAllStringFunc(line, func(pair string) string {
		key, value, _ := strings.Cut(pair, "=")
		out := ansiCyan + key + "=" + ansiReset + base
		if tone, ok := valueColors[key]; ok && value != "" {
			return out + tone + value + ansiReset + base
		}
		return out + value
	})
}
