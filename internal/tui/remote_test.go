package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/stream"
	"github.com/thruflo/sortvis/internal/testutil"
)

type fakeConn struct {
	events chan *stream.Event

	mu      sync.Mutex
	sent    []*stream.Command
	sendErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan *stream.Event, 16)}
}

func (f *fakeConn) Events() <-chan *stream.Event {
	return f.events
}

func (f *fakeConn) Send(ctx context.Context, cmd *stream.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeConn) commands() []*stream.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*stream.Command(nil), f.sent...)
}

type frameCollector struct {
	mu     sync.Mutex
	frames []engine.Frame
}

func (c *frameCollector) Observe(f engine.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

func (c *frameCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRemoteControllerMirrorsEvents(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	ctrl := NewRemoteController(conn, RemoteOptions{DataSet: "small", Size: 20})
	collector := &frameCollector{}
	defer ctrl.Subscribe(collector)()

	assert.Equal(t, engine.StatusIdle, ctrl.Snapshot().Status)

	conn.events <- stream.MustNewEvent(stream.MessageTypeSnapshot, stream.NewSnapshotEvent(engine.Snapshot{
		Values:   []int{3, 1, 2},
		Progress: engine.Progress{Primary: engine.NoIndex, Secondary: engine.NoIndex, Status: engine.StatusIdle},
	}))
	testutil.Eventually(t, func() bool { return collector.count() == 1 })
	assert.Equal(t, []int{3, 1, 2}, ctrl.Snapshot().Values)

	conn.events <- stream.MustNewEvent(stream.MessageTypeFrame, stream.NewFrameEvent(engine.Frame{
		RunID:      "r1",
		Algorithm:  engine.Bubble,
		Seq:        2,
		Values:     []int{1, 3, 2},
		Primary:    1,
		Secondary:  2,
		Elapsed:    time.Millisecond,
		HasElapsed: true,
		Status:     engine.StatusRunning,
	}))
	testutil.Eventually(t, func() bool { return collector.count() == 2 })

	snap := ctrl.Snapshot()
	assert.Equal(t, "r1", snap.RunID)
	assert.Equal(t, engine.StatusRunning, snap.Status)
	assert.Equal(t, 2, snap.Steps)
	assert.Equal(t, 1, snap.Primary)

	// Result events carry nothing the frames did not.
	conn.events <- stream.MustNewEvent(stream.MessageTypeResult, stream.ResultEvent{RunID: "r1"})
	conn.events <- stream.MustNewEvent(stream.MessageTypeAck, stream.NewErrorAck("c1", engine.ErrAlreadyRunning))
	testutil.Eventually(t, func() bool { return collector.count() == 3 })
	assert.Equal(t, engine.ErrAlreadyRunning.Error(), ctrl.Message())

	conn.events <- stream.MustNewEvent(stream.MessageTypeAck, stream.NewSuccessAck("c2"))
	testutil.Eventually(t, func() bool { return collector.count() == 4 })
	assert.Empty(t, ctrl.Message())
}

func TestRemoteControllerCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newFakeConn()
	ctrl := NewRemoteController(conn, RemoteOptions{DataSet: "sorted", Size: 10, Seed: 7})

	require.NoError(t, ctrl.Reset(ctx))
	require.NoError(t, ctrl.Run(ctx, engine.Merge))
	require.NoError(t, ctrl.Cancel(ctx))

	sent := conn.commands()
	require.Len(t, sent, 3)

	assert.Equal(t, stream.CommandTypeReset, sent[0].Type)
	assert.Equal(t, "sorted", sent[0].DataSet)
	assert.Equal(t, 10, sent[0].Size)
	assert.Equal(t, int64(7), sent[0].Seed)

	assert.Equal(t, stream.CommandTypeRun, sent[1].Type)
	assert.Equal(t, "Merge", sent[1].Algorithm)

	assert.Equal(t, stream.CommandTypeCancel, sent[2].Type)

	ids := map[string]bool{}
	for _, cmd := range sent {
		assert.NotEmpty(t, cmd.ID)
		ids[cmd.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestRemoteControllerRunAfterFinishResendsValues(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	ctrl := NewRemoteController(conn, RemoteOptions{})
	collector := &frameCollector{}
	defer ctrl.Subscribe(collector)()

	conn.events <- stream.MustNewEvent(stream.MessageTypeFrame, stream.NewFrameEvent(engine.Frame{
		Seq:       4,
		Values:    []int{1, 2, 3},
		Primary:   engine.NoIndex,
		Secondary: engine.NoIndex,
		Status:    engine.StatusCompleted,
	}))
	testutil.Eventually(t, func() bool { return collector.count() == 1 })

	require.NoError(t, ctrl.Run(context.Background(), engine.Quick))
	sent := conn.commands()
	require.Len(t, sent, 2)
	assert.Equal(t, stream.CommandTypeReset, sent[0].Type)
	assert.Equal(t, []int{1, 2, 3}, sent[0].Values)
	assert.Equal(t, stream.CommandTypeRun, sent[1].Type)
}

func TestRemoteControllerSendError(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	conn.sendErr = errors.New("broken pipe")
	ctrl := NewRemoteController(conn, RemoteOptions{})

	err := ctrl.Cancel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel")
	assert.ErrorIs(t, err, conn.sendErr)
}

func TestRemoteControllerDisconnect(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	ctrl := NewRemoteController(conn, RemoteOptions{})
	close(conn.events)

	select {
	case <-ctrl.Done():
	case <-time.After(testutil.DefaultRunTimeout):
		t.Fatal("controller did not stop")
	}
	assert.Contains(t, ctrl.Message(), "disconnected")
}
