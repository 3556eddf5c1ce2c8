package errors

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidRequest    = errors.New("invalid registration request")
	ErrAccessDenied      = errors.New("repository access denied")
	ErrRunFailed         = errors.New("container run failed")
	ErrContainerNotFound = errors.New("container not found")
	ErrStopFailed        = errors.New("container stop failed")
	ErrStreamFailed      = errors.New("log stream failed")
	ErrConfigInvalid     = errors.New("configuration invalid")
)

type RunnerError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *RunnerError) Error() string {
	return e.OriginalErr.Error()
}

func (e *RunnerError) Unwrap() error {
	return e.OriginalErr
}

// Is matches the error category, so errors.Is(err, ErrRunFailed) holds for
// every run failure regardless of the engine error underneath.
func (e *RunnerError) Is(target error) bool {
	return e.Type == target
}

func NewRunnerError(errorType error, context, cause, suggestion string, originalErr error) *RunnerError {
	return &RunnerError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewInvalidRequestError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrInvalidRequest, context, cause, suggestion, originalErr)
}

func NewAccessError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrAccessDenied, context, cause, suggestion, originalErr)
}

func NewRunError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrRunFailed, context, cause, suggestion, originalErr)
}

func NewNotFoundError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrContainerNotFound, context, cause, suggestion, originalErr)
}

func NewStopError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrStopFailed, context, cause, suggestion, originalErr)
}

func NewStreamError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrStreamFailed, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *RunnerError {
	return NewRunnerError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

// StatusCode maps an error to the HTTP status returned to the caller.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrContainerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
