package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFor(-1))
	assert.Equal(t, slog.LevelWarn, LevelFor(0))
	assert.Equal(t, slog.LevelInfo, LevelFor(1))
	assert.Equal(t, slog.LevelDebug, LevelFor(2))
	assert.Equal(t, slog.LevelDebug, LevelFor(5))
}

func TestNewFiltersByVerbosity(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Verbosity: 1, Output: &buf})

	logger.Debug("hidden")
	logger.Info("stage started", "stage", "BUILD")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "stage=BUILD")
}

func TestNewPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Warn("careful")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestColorLevelOnlyTouchesLevel(t *testing.T) {
	msg := slog.String(slog.MessageKey, "x")
	assert.Equal(t, msg, colorLevel(nil, msg))

	lvl := slog.Any(slog.LevelKey, slog.LevelWarn)
	got := colorLevel(nil, lvl)
	assert.Equal(t, slog.LevelKey, got.Key)
	assert.Contains(t, got.Value.String(), "WARN")
}
