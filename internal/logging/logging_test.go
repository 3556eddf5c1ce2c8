package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embodi/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input       string
		expected    slog.Level
		expectError bool
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "INFO", expected: slog.LevelInfo},
		{input: "", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "loud", expected: slog.LevelInfo, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, level)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetup_JSONToStderrOnly(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer, err := setup(config.LogConfig{Level: "warn", Format: "json"}, &stderr)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("kept", "containerID", "abc")

	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "abc", record["containerID"])
}

func TestSetup_WritesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stderr bytes.Buffer

	logger, closer, err := setup(config.LogConfig{
		Level:     "info",
		Format:    "text",
		Dir:       dir,
		MaxSizeMB: 10,
		MaxFiles:  5,
	}, &stderr)
	require.NoError(t, err)

	logger.Info("Container started", "containerID", "abc")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Container started")
	assert.Contains(t, stderr.String(), "Container started")
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, _, err := setup(config.LogConfig{Level: "chatty"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCheckLogRotation(t *testing.T) {
	t.Run("no rotation needed for small file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), logFileName)
		require.NoError(t, os.WriteFile(logPath, []byte("small"), 0600))

		require.NoError(t, checkLogRotation(logPath, 1024, 5))
		_, err := os.Stat(logPath + ".1")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rotation needed for large file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), logFileName)
		require.NoError(t, os.WriteFile(logPath, bytes.Repeat([]byte("x"), 2048), 0600))

		require.NoError(t, checkLogRotation(logPath, 1024, 5))
		_, err := os.Stat(logPath + ".1")
		assert.NoError(t, err)
		_, err = os.Stat(logPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		assert.NoError(t, checkLogRotation(filepath.Join(t.TempDir(), "absent.log"), 1024, 5))
	})
}

func TestRotateLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), logFileName)

	require.NoError(t, os.WriteFile(logPath, []byte("current"), 0600))
	for i := 1; i <= 3; i++ {
		require.NoError(t, os.WriteFile(fmt.Sprintf("%s.%d", logPath, i), []byte(fmt.Sprintf("old%d", i)), 0600))
	}

	require.NoError(t, rotateLogFile(logPath, 3))

	expected := map[string]string{
		".1": "current",
		".2": "old1",
		".3": "old2",
	}
	for suffix, want := range expected {
		content, err := os.ReadFile(logPath + suffix)
		require.NoError(t, err)
		assert.Equal(t, want, string(content), suffix)
	}
	_, err := os.Stat(logPath + ".4")
	assert.True(t, os.IsNotExist(err))
}
