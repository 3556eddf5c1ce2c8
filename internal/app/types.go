package app

import (
	"context"

	"embodi/internal/orchestrator"
	"embodi/pkg/registration"
)

// Stage is one step of the registration workflow. Stages run in order and
// the first failure ends the registration.
type Stage interface {
	Name() string
	Execute(ctx context.Context, state *RegistrationState) error
}

// RegistrationState carries a registration through its stages.
type RegistrationState struct {
	Request registration.Request
	// Key is the correlation key; set by the run stage.
	Key string
	// Container is the started container; set by the run stage.
	Container *orchestrator.Container
}
