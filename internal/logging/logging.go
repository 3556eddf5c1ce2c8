package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"embodi/internal/config"
)

const logFileName = "embodi.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. Records always go to stderr; when a log
// directory is configured they are also appended to embodi.log there, which
// is rotated on startup once it reaches the configured size.
func Setup(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}

	if cfg.Dir != "" {
		logFile, err := createLogFile(cfg)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(stderr, logFile)
		closer = logFile
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer, nil
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func createLogFile(cfg config.LogConfig) (*os.File, error) {
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(cfg.Dir, logFileName)

	if err := checkLogRotation(logPath, int64(cfg.MaxSizeMB)*1024*1024, cfg.MaxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

// checkLogRotation rotates logPath when it has reached maxSizeBytes.
func checkLogRotation(logPath string, maxSizeBytes int64, maxFiles int) error {
	info, err := os.Stat(logPath)
	if err != nil {
		return nil
	}

	if info.Size() >= maxSizeBytes {
		return rotateLogFile(logPath, maxFiles)
	}

	return nil
}

// rotateLogFile shifts logPath.N to logPath.N+1, dropping the oldest, and
// moves logPath to logPath.1.
func rotateLogFile(logPath string, maxFiles int) error {
	if maxFiles < 1 {
		return os.Remove(logPath)
	}

	oldest := fmt.Sprintf("%s.%d", logPath, maxFiles)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			slog.Warn("Failed to remove old log file", "path", oldest, "error", err)
		}
	}

	for i := maxFiles - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, newPath); err != nil {
				slog.Warn("Failed to rotate log file", "old", oldPath, "new", newPath, "error", err)
			}
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}

	return nil
}
