package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"signalconfig/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, closeFn, err := NewWithConsole(config.LogConfig{
		Console: config.LogSinkConfig{Enabled: true, Level: "warn", Format: "json"},
	}, &out)
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("autosave failed", "trigger", "auto", "error", "disk full")

	body := out.String()
	assert.NotContains(t, body, "hidden")
	assert.Contains(t, body, `"msg":"autosave failed"`)
	assert.Contains(t, body, `"error":"disk full"`)
	assert.NotContains(t, body, `"time"`)
}

func TestNewConsoleLineIsColored(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, closeFn, err := NewWithConsole(config.LogConfig{
		Console: config.LogSinkConfig{Enabled: true, Level: "info", Format: "line"},
	}, &out)
	require.NoError(t, err)
	defer closeFn()

	logger.With(KeyEditor, "ed-7").Error("Error loading signal config from storage",
		KeyStorageKey, "sig-1", "attempt", 2, KeyError, "load draft: unexpected end of JSON input")

	body := out.String()
	assert.True(t, strings.HasPrefix(body, ansiRed), body)
	assert.Contains(t, body, ansiCyan+"key="+ansiReset+ansiRed+ansiGreen+"sig-1"+ansiReset)
	assert.Contains(t, body, ansiMagenta+"ed-7"+ansiReset)
	assert.Contains(t, body, ansiRed+`"load draft: unexpected end of JSON input"`+ansiReset)
	assert.Contains(t, body, ansiCyan+"attempt="+ansiReset+ansiRed+"2")
	assert.NotContains(t, body, "time=")
}

func TestLineWriterPassesUnknownLinesThrough(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	writer := &colorLineWriter{dst: &out}
	n, err := writer.Write([]byte("plain text\n"))
	require.NoError(t, err)
	assert.Equal(t, len("plain text\n"), n)
	assert.Equal(t, "plain text\n", out.String())

	out.Reset()
	line := "level=WARN msg=x editor=abc\n"
	n, err = writer.Write([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.Contains(t, out.String(), ansiMagenta+"abc"+ansiReset+ansiYellow)
}

func TestDiscardDropsRecords(t *testing.T) {
	t.Parallel()

	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewTeeWritesFileSink(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "service.log")
	logger, closeFn, err := NewWithConsole(config.LogConfig{
		Console: config.LogSinkConfig{Enabled: true, Level: "info", Format: "json"},
		File:    config.LogSinkConfig{Enabled: true, Level: "debug", Format: "json", Path: path},
	}, &out)
	require.NoError(t, err)

	logger.Debug("draft loaded", "key", "current-signal-draft")
	closeFn()

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "current-signal-draft")
	assert.NotContains(t, out.String(), "draft loaded")
}

func TestNewRejectsMissingSinks(t *testing.T) {
	t.Parallel()

	_, _, err := NewWithConsole(config.LogConfig{}, &bytes.Buffer{})
	require.Error(t, err)

	_, _, err = NewWithConsole(config.LogConfig{
		Console: config.LogSinkConfig{Enabled: true, Level: "loud", Format: "json"},
	}, &bytes.Buffer{})
	require.Error(t, err)

	_, _, err = NewWithConsole(config.LogConfig{
		File: config.LogSinkConfig{Enabled: true, Level: "info", Format: "xml", Path: filepath.Join(t.TempDir(), "x.log")},
	}, &bytes.Buffer{})
	require.Error(t, err)
}
