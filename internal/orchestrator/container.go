package orchestrator

import (
	"context"
	"log/slog"

	"embodi/pkg/runtime"
)

// Container is a handle to one container known by the engine.
type Container struct {
	id     string
	engine runtime.Engine
	logger *slog.Logger
}

// ID returns the engine-assigned container id.
func (c *Container) ID() string {
	return c.id
}

// Exists reports whether the engine still knows the container. Engine failures
// are answered with false; absence is a normal answer, not an error.
func (c *Container) Exists(ctx context.Context) bool {
	exists, err := c.engine.Exists(ctx, c.id)
	if err != nil {
		c.logger.Warn("Container existence check failed", "containerID", c.id, "error", err)
		return false
	}
	return exists
}

// Stop asks the engine to stop the container.
func (c *Container) Stop(ctx context.Context) error {
	return c.engine.Stop(ctx, c.id)
}

// Logs attaches to the container output. Every call is a fresh attach; the
// channel closes when the container exits, the read fails, or ctx is done.
func (c *Container) Logs(ctx context.Context) (<-chan runtime.LogChunk, error) {
	return c.engine.AttachLogs(ctx, c.id)
}
