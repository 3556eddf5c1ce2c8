package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"embodi/pkg/runtime"
)

// MockEngine is a testify mock of runtime.Engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Create(ctx context.Context, spec runtime.ContainerSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) Start(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEngine) Stop(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEngine) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEngine) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngine) PullImage(ctx context.Context, image string) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockEngine) AttachLogs(ctx context.Context, id string) (<-chan runtime.LogChunk, error) {
	args := m.Called(ctx, id)
	ch, _ := args.Get(0).(<-chan runtime.LogChunk)
	return ch, args.Error(1)
}

// Chunks returns a closed channel pre-filled with chunks, as a finished log
// stream would look.
func Chunks(chunks ...runtime.LogChunk) <-chan runtime.LogChunk {
	ch := make(chan runtime.LogChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// Stdout builds an stdout chunk.
func Stdout(s string) runtime.LogChunk {
	return runtime.LogChunk{Channel: runtime.Stdout, Data: []byte(s)}
}

// Stderr builds an stderr chunk.
func Stderr(s string) runtime.LogChunk {
	return runtime.LogChunk{Channel: runtime.Stderr, Data: []byte(s)}
}
