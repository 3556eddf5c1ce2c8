package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "embodi/internal/errors"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorBold  = "\033[1m"
)

// Console prints command failures for a human at a terminal.
type Console struct {
	out       io.Writer
	useColors bool
}

// NewConsole writes to f, with colours when f is a terminal.
func NewConsole(f *os.File) *Console {
	return &Console{out: f, useColors: isTerminal(f)}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// PrintError prints err. Categorised errors also get their context, cause and
// suggestion on separate lines.
func (c *Console) PrintError(err error) {
	if err == nil {
		return
	}

	headline := "Error: " + err.Error()
	if c.useColors {
		headline = colorRed + colorBold + headline + colorReset
	}
	fmt.Fprintln(c.out, headline)

	var runnerErr *apperrors.RunnerError
	if errors.As(err, &runnerErr) {
		if details := FormatErrorMessage(runnerErr.Context, runnerErr.Cause, runnerErr.Suggestion); details != "" {
			fmt.Fprintln(c.out, details)
		}
	}
}

// FormatErrorMessage joins the non-empty parts, one per line.
func FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, fmt.Sprintf("While: %s", context))
	}

	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}

	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}
