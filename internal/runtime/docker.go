package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"embodi/pkg/runtime"
)

// dockerClient is the subset of the Docker API client used by DockerEngine.
type dockerClient interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	Close() error
}

// Options configures the Docker engine adapter.
type Options struct {
	// Host is the engine endpoint, e.g. unix:///run/podman/podman.sock.
	// When empty the DOCKER_HOST environment and client defaults apply.
	Host string
	// StopTimeout is how long the engine waits before killing a stopping container.
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// DockerEngine implements the Engine interface using the Docker Engine API.
// Podman serves the same API on its compat socket, so both engines work.
type DockerEngine struct {
	client      dockerClient
	stopTimeout time.Duration
	logger      *slog.Logger
}

// NewDockerEngine creates a DockerEngine and checks that the daemon answers.
func NewDockerEngine(ctx context.Context, opts Options) (*DockerEngine, error) {
	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}

	dockerClient, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := dockerClient.Ping(pingCtx); err != nil {
		_ = dockerClient.Close()
		return nil, fmt.Errorf("failed to connect to container engine: %w: %w", runtime.ErrEngineUnavailable, err)
	}

	return newDockerEngine(dockerClient, opts), nil
}

func newDockerEngine(cli dockerClient, opts Options) *DockerEngine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerEngine{
		client:      cli,
		stopTimeout: opts.StopTimeout,
		logger:      logger.With("component", "engine"),
	}
}

// Create creates a container from spec without starting it.
func (d *DockerEngine) Create(ctx context.Context, spec runtime.ContainerSpec) (string, error) {
	env := make([]string, 0, len(spec.Env))
	for _, v := range spec.Env {
		env = append(env, v.Key+"="+v.Value)
	}

	containerConfig := &container.Config{
		Image: spec.Image,
		Env:   env,
	}
	hostConfig := &container.HostConfig{
		AutoRemove: spec.RemoveOnExit,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("failed to create container from %s: %w: %w", spec.Image, runtime.ErrImageNotFound, err)
		}
		return "", d.classify("failed to create container", err)
	}

	for _, w := range resp.Warnings {
		d.logger.Warn("Engine warning on create", "containerID", resp.ID, "warning", w)
	}
	d.logger.Debug("Container created", "containerID", resp.ID, "image", spec.Image)
	return resp.ID, nil
}

// Start starts a created container.
func (d *DockerEngine) Start(ctx context.Context, id string) error {
	if err := d.client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return d.classify("failed to start container", err)
	}
	return nil
}

// Stop asks the engine to stop a container. Stopping a stopped container is not an error.
func (d *DockerEngine) Stop(ctx context.Context, id string) error {
	opts := container.StopOptions{}
	if d.stopTimeout > 0 {
		timeout := int(d.stopTimeout.Seconds())
		opts.Timeout = &timeout
	}
	if err := d.client.ContainerStop(ctx, id, opts); err != nil {
		if errdefs.IsNotModified(err) {
			return nil
		}
		return d.classify("failed to stop container", err)
	}
	return nil
}

// Remove force-removes a container.
func (d *DockerEngine) Remove(ctx context.Context, id string) error {
	if err := d.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return d.classify("failed to remove container", err)
	}
	return nil
}

// Exists reports whether the engine knows the container id.
func (d *DockerEngine) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := d.client.ContainerInspect(ctx, id); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, d.classify("failed to inspect container", err)
	}
	return true, nil
}

// PullImage pulls an image and waits for the pull to finish.
func (d *DockerEngine) PullImage(ctx context.Context, imageName string) error {
	d.logger.Info("Pulling image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		if client.IsErrConnectionFailed(err) {
			return fmt.Errorf("failed to pull image %s: %w: %w", imageName, runtime.ErrEngineUnavailable, err)
		}
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained; errors
	// reported inside the stream surface here.
	if err := jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}

	d.logger.Info("Successfully pulled image", "image", imageName)
	return nil
}

// AttachLogs follows the container output and delivers it chunk by chunk.
func (d *DockerEngine) AttachLogs(ctx context.Context, id string) (<-chan runtime.LogChunk, error) {
	reader, err := d.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, d.classify("failed to get container logs", err)
	}

	out := make(chan runtime.LogChunk)
	go func() {
		defer close(out)
		defer reader.Close()

		stdout := &chunkWriter{ctx: ctx, channel: runtime.Stdout, out: out}
		stderr := &chunkWriter{ctx: ctx, channel: runtime.Stderr, out: out}
		if _, err := stdcopy.StdCopy(stdout, stderr, reader); err != nil && ctx.Err() == nil {
			d.logger.Debug("Log stream ended with error", "containerID", id, "error", err)
		}
	}()

	return out, nil
}

// classify wraps err with the runtime sentinel matching the failure.
func (d *DockerEngine) classify(msg string, err error) error {
	switch {
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%s: %w: %w", msg, runtime.ErrContainerNotFound, err)
	case client.IsErrConnectionFailed(err):
		return fmt.Errorf("%s: %w: %w", msg, runtime.ErrEngineUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// Close releases the engine connection.
func (d *DockerEngine) Close() error {
	return d.client.Close()
}

// chunkWriter turns each demultiplexed frame into a LogChunk.
type chunkWriter struct {
	ctx     context.Context
	channel runtime.Channel
	out     chan<- runtime.LogChunk
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	// stdcopy reuses its buffer between frames.
	data := make([]byte, len(p))
	copy(data, p)

	select {
	case w.out <- runtime.LogChunk{Channel: w.channel, Data: data}:
		return len(p), nil
	case <-w.ctx.Done():
		return 0, w.ctx.Err()
	}
}
