package errors

import (
	"context"
	"errors"
	"log/slog"
)

// Handler records failures that reach the HTTP boundary.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// Handle logs err once with its category and returns the HTTP status for it.
func (h *Handler) Handle(ctx context.Context, err error) int {
	if err == nil {
		return StatusCode(nil)
	}

	var runnerErr *RunnerError
	if errors.As(err, &runnerErr) {
		h.logStructuredError(ctx, runnerErr)
	} else {
		h.logger.ErrorContext(ctx, "Unhandled error occurred",
			"error", err.Error(),
			"type", "generic",
		)
	}
	return StatusCode(err)
}

func (h *Handler) logStructuredError(ctx context.Context, err *RunnerError) {
	logAttrs := []slog.Attr{
		slog.String("error", err.OriginalErr.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}

	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	// Caller mistakes are not server faults.
	level := slog.LevelError
	switch err.Type {
	case ErrInvalidRequest, ErrAccessDenied, ErrContainerNotFound:
		level = slog.LevelWarn
	}

	h.logger.LogAttrs(ctx, level, "Request failed", logAttrs...)
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrAccessDenied:
		return "access_denied"
	case ErrRunFailed:
		return "run_failed"
	case ErrContainerNotFound:
		return "container_not_found"
	case ErrStopFailed:
		return "stop_failed"
	case ErrStreamFailed:
		return "stream_failed"
	case ErrConfigInvalid:
		return "config_invalid"
	default:
		return "unknown"
	}
}
