package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("merged classes", "classes", 3)

	assert.Contains(t, stderr.String(), "msg=\"merged classes\" classes=3")
	assert.Contains(t, file.String(), `"msg":"merged classes","classes":3`)
	assert.NotContains(t, file.String(), "hidden")
}

func TestSetupLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordlink.log")
	logger, closeLog := SetupLogger(LogConfig{Level: "info", File: path})
	logger.Info("published mapping", "entries", 2)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries":2`)
}
