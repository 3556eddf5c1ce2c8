// Located in pkg/runtime/runtime.go
package runtime

import (
	"context"
	"errors"
)

var (
	// ErrImageNotFound is returned by Create when the image is not present locally.
	ErrImageNotFound = errors.New("image not found")
	// ErrContainerNotFound is returned when the engine does not know a container id.
	ErrContainerNotFound = errors.New("container not found")
	// ErrEngineUnavailable is returned when the engine cannot be reached at all.
	ErrEngineUnavailable = errors.New("container engine unavailable")
)

// EnvVar is a single environment variable injected into a container.
type EnvVar struct {
	Key   string
	Value string
}

// ContainerSpec defines the parameters for creating a container.
// Env keeps insertion order so the container sees variables in a stable order.
type ContainerSpec struct {
	Image        string
	Env          []EnvVar
	RemoveOnExit bool
}

// Channel identifies which container stream a log chunk came from.
type Channel int

const (
	// Stdout is the container's standard output.
	Stdout Channel = iota
	// Stderr is the container's standard error.
	Stderr
)

func (c Channel) String() string {
	switch c {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// LogChunk is one raw piece of container output as delivered by the engine.
type LogChunk struct {
	Channel Channel
	Data    []byte
}

// Engine defines the contract for container engine operations.
type Engine interface {
	// Create creates a container and returns its id. It returns an error wrapping
	// ErrImageNotFound when the image is absent locally.
	Create(ctx context.Context, spec ContainerSpec) (string, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	// Remove force-removes a container.
	Remove(ctx context.Context, id string) error
	// Exists reports whether the engine knows the container. An unknown id is
	// answered with (false, nil).
	Exists(ctx context.Context, id string) (bool, error)
	PullImage(ctx context.Context, image string) error
	// AttachLogs follows the container's stdout and stderr. The returned channel
	// is closed when the stream ends, fails, or ctx is cancelled.
	AttachLogs(ctx context.Context, id string) (<-chan LogChunk, error)
}
