package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"embodi/pkg/runtime"
)

// Orchestrator turns a ContainerSpec into a running container.
type Orchestrator struct {
	engine runtime.Engine
	logger *slog.Logger
}

// New creates an Orchestrator on top of a container engine.
func New(engine runtime.Engine, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine: engine,
		logger: logger.With("component", "orchestrator"),
	}
}

// Run creates and starts a container from spec. A missing image is pulled and
// the create retried exactly once; every other failure is returned as is.
//
// If the start fails the created container is force-removed on a best-effort
// basis so a failed registration does not leave it behind.
func (o *Orchestrator) Run(ctx context.Context, spec runtime.ContainerSpec) (*Container, error) {
	o.logger.Info("Running container", "image", spec.Image, "removeOnExit", spec.RemoveOnExit)

	id, err := o.engine.Create(ctx, spec)
	if errors.Is(err, runtime.ErrImageNotFound) {
		o.logger.Info("Image not present locally, pulling", "image", spec.Image)
		if pullErr := o.engine.PullImage(ctx, spec.Image); pullErr != nil {
			return nil, pullErr
		}
		id, err = o.engine.Create(ctx, spec)
	}
	if err != nil {
		return nil, err
	}

	if err := o.engine.Start(ctx, id); err != nil {
		// The request context may be the reason start failed.
		if removeErr := o.engine.Remove(context.WithoutCancel(ctx), id); removeErr != nil {
			o.logger.Error("Failed to remove container after start failure", "containerID", id, "error", removeErr)
		}
		return nil, fmt.Errorf("container %s created but not started: %w", shortID(id), err)
	}

	o.logger.Info("Container started", "containerID", id, "image", spec.Image)
	return o.Container(id), nil
}

// Container returns a handle for an existing container id. The id is not
// checked; every handle operation goes to the engine.
func (o *Orchestrator) Container(id string) *Container {
	return &Container{
		id:     id,
		engine: o.engine,
		logger: o.logger,
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
