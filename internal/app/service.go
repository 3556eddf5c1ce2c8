package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"embodi/internal/demux"
	apperrors "embodi/internal/errors"
	"embodi/internal/orchestrator"
	"embodi/pkg/registration"
	"embodi/pkg/runtime"
)

// Options configures the registration workflow.
type Options struct {
	ImageRepository string
	RemoveOnExit    bool
	// VerifyAccess enables the repository access check before a run.
	VerifyAccess bool
}

// Service implements registration, log streaming and stop on top of the
// orchestrator and the demultiplexer.
type Service struct {
	orchestrator *orchestrator.Orchestrator
	demux        *demux.Demultiplexer
	stages       []Stage
	logger       *slog.Logger
}

// NewService wires the registration stages. verifiers may be nil when
// VerifyAccess is off.
func NewService(orch *orchestrator.Orchestrator, dmx *demux.Demultiplexer, verifiers VerifierProvider, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "registration")

	stages := []Stage{&ValidateStage{}}
	if opts.VerifyAccess && verifiers != nil {
		stages = append(stages, NewVerifyStage(verifiers, logger))
	}
	stages = append(stages, NewRunStage(orch, opts.ImageRepository, opts.RemoveOnExit))

	return &Service{
		orchestrator: orch,
		demux:        dmx,
		stages:       stages,
		logger:       logger,
	}
}

// Register starts a validation container for req and returns its id together
// with the correlation key its output is scoped to. There is no retry here.
func (s *Service) Register(ctx context.Context, req registration.Request) (registration.Response, error) {
	state := &RegistrationState{Request: req}

	for _, stage := range s.stages {
		if err := stage.Execute(ctx, state); err != nil {
			s.logger.Debug("Registration stage failed", "stage", stage.Name(), "error", err)
			return registration.Response{}, err
		}
	}

	s.logger.Info("Registration accepted",
		"containerID", state.Container.ID(),
		"repo", req.Repo.FullName(),
		"platform", req.Repo.Platform,
		"version", req.Version,
	)
	return registration.Response{ID: state.Container.ID(), Key: state.Key}, nil
}

// Stream subscribes to the output of container id visible to key.
func (s *Service) Stream(ctx context.Context, id, key string) (<-chan demux.LogEvent, error) {
	return s.demux.Subscribe(ctx, s.orchestrator.Container(id), key)
}

// Stop stops container id.
func (s *Service) Stop(ctx context.Context, id string) error {
	c := s.orchestrator.Container(id)
	if !c.Exists(ctx) {
		return notFound(id, nil)
	}

	if err := c.Stop(ctx); err != nil {
		if errors.Is(err, runtime.ErrContainerNotFound) {
			return notFound(id, err)
		}
		return apperrors.NewStopError("Stopping container", "", "", err)
	}

	s.logger.Info("Container stopped", "containerID", id)
	return nil
}

func notFound(id string, err error) error {
	if err == nil {
		err = fmt.Errorf("container %s not found", id)
	}
	return apperrors.NewNotFoundError("Stopping container", "The engine does not know this container id", "", err)
}
