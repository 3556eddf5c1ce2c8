package demux

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "embodi/internal/errors"
	"embodi/internal/orchestrator"
	"embodi/internal/testutil"
	"embodi/pkg/runtime"
)

func collect(t *testing.T, events <-chan LogEvent) []LogEvent {
	t.Helper()
	var got []LogEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("event channel was not closed")
			return nil
		}
	}
}

func TestClassify(t *testing.T) {
	prefix := Prefix("k1")

	tests := []struct {
		name     string
		chunk    runtime.LogChunk
		expected []LogEvent
	}{
		{
			name:     "matching stdout line is stripped and trimmed",
			chunk:    testutil.Stdout("[k1]   build started  \n"),
			expected: []LogEvent{{Channel: Output, Payload: "build started"}},
		},
		{
			name:     "stdout line for another key is dropped",
			chunk:    testutil.Stdout("[k2] hello\n"),
			expected: nil,
		},
		{
			name:     "unprefixed stdout line is dropped",
			chunk:    testutil.Stdout("hello [k1]\n"),
			expected: nil,
		},
		{
			name:     "prefix must match exactly",
			chunk:    testutil.Stdout("[k1x] hello\n"),
			expected: nil,
		},
		{
			name:     "stderr passes unfiltered",
			chunk:    testutil.Stderr("warn: slow disk\n"),
			expected: []LogEvent{{Channel: Error, Payload: "warn: slow disk"}},
		},
		{
			name:     "stderr keeps surrounding spaces and foreign prefixes",
			chunk:    testutil.Stderr("[k2]  oops "),
			expected: []LogEvent{{Channel: Error, Payload: "[k2]  oops "}},
		},
		{
			name:  "chunk carrying several lines",
			chunk: testutil.Stdout("[k1] one\r\n[k2] two\n[k1] three\n"),
			expected: []LogEvent{
				{Channel: Output, Payload: "one"},
				{Channel: Output, Payload: "three"},
			},
		},
		{
			name:     "invalid bytes are replaced",
			chunk:    runtime.LogChunk{Channel: runtime.Stdout, Data: []byte("[k1] caf\xff\n")},
			expected: []LogEvent{{Channel: Output, Payload: "caf�"}},
		},
		{
			name:     "empty chunk yields nothing",
			chunk:    testutil.Stderr(""),
			expected: nil,
		},
		{
			name:     "prefix only yields an empty payload",
			chunk:    testutil.Stdout("[k1]\n"),
			expected: []LogEvent{{Channel: Output, Payload: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.chunk, prefix))
		})
	}
}

func TestClassify_OtherKeysNeverLeak(t *testing.T) {
	for i := 0; i < 50; i++ {
		k1, k2 := uuid.New().String(), uuid.New().String()
		events := Classify(testutil.Stdout(Prefix(k1)+" hello\n"), Prefix(k2))
		assert.Empty(t, events)
	}
}

func TestClassify_PayloadIsTrimmedIdempotently(t *testing.T) {
	for _, payload := range []string{"x", "  x", "x  ", "\tx y\t", "   "} {
		events := Classify(testutil.Stdout("[k]"+payload+"\n"), Prefix("k"))
		require.Len(t, events, 1)
		again := Classify(testutil.Stdout("[k]"+events[0].Payload+"\n"), Prefix("k"))
		require.Len(t, again, 1)
		assert.Equal(t, events[0].Payload, again[0].Payload)
	}
}

func TestSubscribe_NotFoundBeforeAnyRead(t *testing.T) {
	engine := &testutil.MockEngine{}
	engine.On("Exists", mock.Anything, "gone").Return(false, nil)

	src := orchestrator.New(engine, nil).Container("gone")
	events, err := New(nil).Subscribe(context.Background(), src, "key")

	require.Error(t, err)
	assert.Nil(t, events)
	assert.True(t, errors.Is(err, apperrors.ErrContainerNotFound))
	engine.AssertNotCalled(t, "AttachLogs", mock.Anything, mock.Anything)
}

func TestSubscribe_Scenario(t *testing.T) {
	key := uuid.New().String()
	engine := &testutil.MockEngine{}
	engine.On("Exists", mock.Anything, "abc").Return(true, nil)
	engine.On("AttachLogs", mock.Anything, "abc").Return(testutil.Chunks(
		testutil.Stdout("["+key+"] build started\n"),
		testutil.Stdout("["+uuid.New().String()+"] someone else\n"),
		testutil.Stderr("warn: slow disk\n"),
	), nil)

	src := orchestrator.New(engine, nil).Container("abc")
	events, err := New(nil).Subscribe(context.Background(), src, key)
	require.NoError(t, err)

	got := collect(t, events)
	assert.Equal(t, []LogEvent{
		{Channel: Output, Payload: "build started"},
		{Channel: Error, Payload: "warn: slow disk"},
	}, got)
}

func TestSubscribe_AttachFailure(t *testing.T) {
	engine := &testutil.MockEngine{}
	engine.On("Exists", mock.Anything, "abc").Return(true, nil)
	engine.On("AttachLogs", mock.Anything, "abc").Return(nil, errors.New("connection reset"))

	src := orchestrator.New(engine, nil).Container("abc")
	_, err := New(nil).Subscribe(context.Background(), src, "key")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStreamFailed)
}

func TestSubscribe_ContainerGoneBeforeAttach(t *testing.T) {
	engine := &testutil.MockEngine{}
	engine.On("Exists", mock.Anything, "abc").Return(true, nil)
	engine.On("AttachLogs", mock.Anything, "abc").
		Return(nil, fmt.Errorf("failed to get container logs: %w", runtime.ErrContainerNotFound))

	src := orchestrator.New(engine, nil).Container("abc")
	_, err := New(nil).Subscribe(context.Background(), src, "key")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrContainerNotFound)
	assert.Equal(t, 404, apperrors.StatusCode(err))
}

func TestSubscribe_CancelReleasesAttach(t *testing.T) {
	live := make(chan runtime.LogChunk)
	var ro <-chan runtime.LogChunk = live

	var attachCtx context.Context
	engine := &testutil.MockEngine{}
	engine.On("Exists", mock.Anything, "abc").Return(true, nil)
	engine.On("AttachLogs", mock.Anything, "abc").Run(func(args mock.Arguments) {
		attachCtx = args.Get(0).(context.Context)
	}).Return(ro, nil)

	ctx, cancel := context.WithCancel(context.Background())
	src := orchestrator.New(engine, nil).Container("abc")
	events, err := New(nil).Subscribe(ctx, src, "k")
	require.NoError(t, err)

	live <- testutil.Stdout("[k] first\n")
	ev := <-events
	assert.Equal(t, "first", ev.Payload)

	cancel()
	assert.Empty(t, collect(t, events))
	require.NotNil(t, attachCtx)
	assert.Error(t, attachCtx.Err(), "the engine attach must see the cancellation")
}
