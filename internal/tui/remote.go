package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/logging"
	"github.com/thruflo/sortvis/internal/stream"
)

// EventConn is the part of stream.Client the RemoteController uses.
type EventConn interface {
	Events() <-chan *stream.Event
	Send(ctx context.Context, cmd *stream.Command) error
}

// RemoteOptions selects the data set requested by Reset.
type RemoteOptions struct {
	DataSet string
	Size    int
	Seed    int64
}

// RemoteController drives the engine of a `sortvis serve` instance over
// its websocket. State is mirrored from the events the server broadcasts.
type RemoteController struct {
	conn EventConn
	opts RemoteOptions
	log  *logging.Logger

	mu        sync.RWMutex
	snap      engine.Snapshot
	message   string
	observers map[int]engine.Observer
	nextObsID int

	done chan struct{}
}

// NewRemoteController starts consuming conn's events. Done is closed when
// the event channel closes.
func NewRemoteController(conn EventConn, opts RemoteOptions) *RemoteController {
	c := &RemoteController{
		conn: conn,
		opts: opts,
		log:  logging.With("component", "remote"),
		snap: engine.Snapshot{
			Progress: engine.Progress{Primary: engine.NoIndex, Secondary: engine.NoIndex, Status: engine.StatusIdle},
		},
		observers: make(map[int]engine.Observer),
		done:      make(chan struct{}),
	}
	go c.consume()
	return c
}

func (c *RemoteController) consume() {
	defer close(c.done)
	for event := range c.conn.Events() {
		c.apply(event)
	}
	c.mu.Lock()
	c.message = "disconnected from server"
	c.mu.Unlock()
	c.notify()
}

func (c *RemoteController) apply(event *stream.Event) {
	switch event.Type {
	case stream.MessageTypeSnapshot:
		data, err := event.SnapshotData()
		if err != nil {
			c.log.Warn("bad snapshot event", "error", err)
			return
		}
		c.mu.Lock()
		c.snap = data.Snapshot()
		c.mu.Unlock()

	case stream.MessageTypeFrame:
		data, err := event.FrameData()
		if err != nil {
			c.log.Warn("bad frame event", "error", err)
			return
		}
		c.mu.Lock()
		c.snap = data.Snapshot()
		c.mu.Unlock()

	case stream.MessageTypeAck:
		ack, err := event.AckData()
		if err != nil {
			c.log.Warn("bad ack event", "error", err)
			return
		}
		c.mu.Lock()
		if ack.Status == stream.AckStatusError {
			c.message = ack.Error
		} else {
			c.message = ""
		}
		c.mu.Unlock()

	default:
		return
	}
	c.notify()
}

// notify hands the mirrored state to observers as a frame.
func (c *RemoteController) notify() {
	c.mu.RLock()
	s := c.snap
	observers := make([]engine.Observer, 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.RUnlock()

	frame := engine.Frame{
		RunID:      s.RunID,
		Algorithm:  s.Algorithm,
		Seq:        s.Steps,
		Values:     s.Values,
		Primary:    s.Primary,
		Secondary:  s.Secondary,
		Elapsed:    s.Elapsed,
		HasElapsed: s.HasElapsed,
		Status:     s.Status,
	}
	for _, o := range observers {
		o.Observe(frame)
	}
}

// Done is closed once the connection's event stream has ended.
func (c *RemoteController) Done() <-chan struct{} {
	return c.done
}

// Message returns the error of the last failed command, or "".
func (c *RemoteController) Message() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message
}

// Snapshot returns the last state received from the server.
func (c *RemoteController) Snapshot() engine.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snap
	s.Values = append([]int(nil), s.Values...)
	return s
}

// Reset asks the server to generate the configured data set.
func (c *RemoteController) Reset(ctx context.Context) error {
	return c.send(ctx, stream.NewDataSetResetCommand(uuid.NewString(), c.opts.DataSet, c.opts.Size, c.opts.Seed))
}

// Run asks the server to sort with alg. After a finished run the values on
// screen are sent back first so they are sorted again.
func (c *RemoteController) Run(ctx context.Context, alg engine.Algorithm) error {
	if snap := c.Snapshot(); snap.Status.Terminal() {
		if err := c.send(ctx, stream.NewResetCommand(uuid.NewString(), snap.Values)); err != nil {
			return err
		}
	}
	return c.send(ctx, stream.NewRunCommand(uuid.NewString(), alg))
}

// Cancel asks the server to cancel its active run.
func (c *RemoteController) Cancel(ctx context.Context) error {
	return c.send(ctx, stream.NewCancelCommand(uuid.NewString()))
}

func (c *RemoteController) send(ctx context.Context, cmd *stream.Command) error {
	if err := c.conn.Send(ctx, cmd); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Type, err)
	}
	return nil
}

// Subscribe registers o for every state change received from the server.
func (c *RemoteController) Subscribe(o engine.Observer) func() {
	c.mu.Lock()
	c.nextObsID++
	id := c.nextObsID
	c.observers[id] = o
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}
