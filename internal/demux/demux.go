// Package demux routes a container's combined log stream to the subscriber
// whose correlation key prefixes each stdout line.
package demux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "embodi/internal/errors"
	"embodi/pkg/runtime"
)

// Channel tells a subscriber which container stream an event came from.
type Channel int

const (
	// Output is a stdout line that carried the subscriber's prefix.
	Output Channel = iota
	// Error is a stderr line; these are never filtered by key.
	Error
)

func (c Channel) String() string {
	if c == Error {
		return "stderr"
	}
	return "stdout"
}

// LogEvent is one line of container output delivered to a subscriber.
type LogEvent struct {
	Channel Channel
	Payload string
}

// Source is a container whose logs can be followed.
type Source interface {
	ID() string
	Exists(ctx context.Context) bool
	Logs(ctx context.Context) (<-chan runtime.LogChunk, error)
}

// Prefix returns the literal a container writes in front of every stdout
// line that belongs to key.
func Prefix(key string) string {
	return "[" + key + "]"
}

// Demultiplexer filters container output down to one correlation key.
type Demultiplexer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Demultiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Demultiplexer{logger: logger.With("component", "demux")}
}

// Subscribe attaches to src and returns the events visible to key. The
// existence check happens before any log read; an unknown container yields
// ErrContainerNotFound. The channel closes when the source ends or fails, or
// when ctx is cancelled.
func (d *Demultiplexer) Subscribe(ctx context.Context, src Source, key string) (<-chan LogEvent, error) {
	if !src.Exists(ctx) {
		return nil, apperrors.NewNotFoundError(
			"Attaching to container logs",
			"The engine does not know this container id",
			"Register again to start a new container",
			fmt.Errorf("container %s not found", src.ID()),
		)
	}

	chunks, err := src.Logs(ctx)
	if err != nil {
		if errors.Is(err, runtime.ErrContainerNotFound) {
			return nil, apperrors.NewNotFoundError(
				"Attaching to container logs",
				"The container was removed before its logs could be read",
				"Register again to start a new container",
				err,
			)
		}
		return nil, apperrors.NewStreamError("Attaching to container logs", "", "", err)
	}

	out := make(chan LogEvent)
	go func() {
		defer close(out)

		prefix := Prefix(key)
		for {
			select {
			case <-ctx.Done():
				d.logger.Debug("Subscriber went away", "containerID", src.ID())
				return
			case chunk, ok := <-chunks:
				if !ok {
					d.logger.Info("Stream closed", "containerID", src.ID())
					return
				}
				for _, ev := range Classify(chunk, prefix) {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// Classify turns one raw chunk into the events a subscriber with prefix may
// see. Stdout lines without the exact prefix are dropped; stderr lines always
// pass. Invalid UTF-8 is replaced, never rejected.
func Classify(chunk runtime.LogChunk, prefix string) []LogEvent {
	if len(chunk.Data) == 0 {
		return nil
	}
	text := strings.ToValidUTF8(string(chunk.Data), "�")

	var events []LogEvent
	for _, line := range splitLines(text) {
		switch chunk.Channel {
		case runtime.Stderr:
			events = append(events, LogEvent{Channel: Error, Payload: line})
		default:
			rest, ok := strings.CutPrefix(line, prefix)
			if !ok {
				continue
			}
			events = append(events, LogEvent{Channel: Output, Payload: strings.TrimSpace(rest)})
		}
	}
	return events
}

// splitLines splits on line terminators; a trailing terminator does not start
// another line.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
