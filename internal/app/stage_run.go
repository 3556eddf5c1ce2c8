package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"embodi/internal/demux"
	apperrors "embodi/internal/errors"
	"embodi/internal/orchestrator"
	"embodi/pkg/registration"
	"embodi/pkg/runtime"
)

// RunStage starts the validation container for a registration.
type RunStage struct {
	orchestrator    *orchestrator.Orchestrator
	imageRepository string
	removeOnExit    bool
	newKey          func() string
}

func NewRunStage(orch *orchestrator.Orchestrator, imageRepository string, removeOnExit bool) *RunStage {
	return &RunStage{
		orchestrator:    orch,
		imageRepository: imageRepository,
		removeOnExit:    removeOnExit,
		newKey:          uuid.NewString,
	}
}

func (s *RunStage) Name() string {
	return "run"
}

func (s *RunStage) Execute(ctx context.Context, state *RegistrationState) error {
	key := s.newKey()

	spec := runtime.ContainerSpec{
		Image:        s.imageRepository + ":" + state.Request.Version,
		Env:          buildEnv(state.Request.Repo, key),
		RemoveOnExit: s.removeOnExit,
	}

	c, err := s.orchestrator.Run(ctx, spec)
	if err != nil {
		cause := "The container engine rejected the run"
		suggestion := ""
		if errors.Is(err, runtime.ErrEngineUnavailable) {
			cause = "The container engine is not reachable"
			suggestion = "Check that Docker or Podman is running and that engine.host points at its socket"
		}
		return apperrors.NewRunError("Starting validation container", cause, suggestion, err)
	}

	state.Key = key
	state.Container = c
	return nil
}

// buildEnv returns the container environment. The container tags every stdout
// line meant for this registration with CORRELATION_PREFIX.
func buildEnv(repo registration.Repository, key string) []runtime.EnvVar {
	return []runtime.EnvVar{
		{Key: "PLATFORM", Value: string(repo.Platform)},
		{Key: "OWNER", Value: repo.Owner},
		{Key: "NAME", Value: repo.Name},
		{Key: "TOKEN", Value: repo.Token},
		{Key: "CORRELATION_PREFIX", Value: demux.Prefix(key)},
	}
}
