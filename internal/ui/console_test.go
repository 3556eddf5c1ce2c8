package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embodi/internal/errors"
)

func TestConsole_PrintError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		useColors bool
		expected  string
	}{
		{
			name:     "plain error",
			err:      errors.New("listen tcp :8000: address already in use"),
			expected: "Error: listen tcp :8000: address already in use\n",
		},
		{
			name: "categorised error",
			err: apperrors.NewConfigError(
				"Loading configuration",
				"",
				"Check the config file",
				errors.New("validation error: field 'Config.Log.Level' must be one of: debug info warn error"),
			),
			expected: "Error: validation error: field 'Config.Log.Level' must be one of: debug info warn error\n" +
				"While: Loading configuration\n" +
				"Suggestion: Check the config file\n",
		},
		{
			name:      "colours wrap the headline only",
			err:       apperrors.NewRunError("Starting", "engine down", "", errors.New("boom")),
			useColors: true,
			expected:  colorRed + colorBold + "Error: boom" + colorReset + "\nWhile: Starting\nCause: engine down\n",
		},
		{
			name:     "wrapped categorised error",
			err:      fmt.Errorf("serve: %w", apperrors.NewStopError("Stopping", "", "", errors.New("boom"))),
			expected: "Error: serve: boom\nWhile: Stopping\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &Console{out: &buf, useColors: tt.useColors}
			c.PrintError(tt.err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestConsole_PrintError_Nil(t *testing.T) {
	var buf bytes.Buffer
	(&Console{out: &buf}).PrintError(nil)
	assert.Empty(t, buf.String())
}

func TestFormatErrorMessage(t *testing.T) {
	tests := []struct {
		name       string
		context    string
		cause      string
		suggestion string
		expected   string
	}{
		{name: "all parts", context: "Loading", cause: "bad file", suggestion: "fix it", expected: "While: Loading\nCause: bad file\nSuggestion: fix it"},
		{name: "context only", context: "Loading", expected: "While: Loading"},
		{name: "nothing", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatErrorMessage(tt.context, tt.cause, tt.suggestion))
		})
	}
}

func TestNewConsole_RegularFileHasNoColors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, NewConsole(f).useColors)
}
