package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/logging"
)

// Controller is what the App drives. Reset loads a fresh sequence, Run
// starts sorting it, and Cancel stops the active run. Subscribe delivers
// frames so the App can redraw when a run changes state.
type Controller interface {
	Snapshot() engine.Snapshot
	Reset(ctx context.Context) error
	Run(ctx context.Context, alg engine.Algorithm) error
	Cancel(ctx context.Context) error
	Subscribe(o engine.Observer) (unsubscribe func())
}

// FinishFunc is called once per finished run with its result and wall
// clock bounds.
type FinishFunc func(result engine.Result, startedAt, finishedAt time.Time)

// LocalController drives an in-process engine.
type LocalController struct {
	engine   *engine.Engine
	data     func() ([]int, error)
	onFinish FinishFunc
	log      *logging.Logger

	// pending counts finish hooks that have not returned yet.
	pending sync.WaitGroup
}

// LocalOption configures a LocalController.
type LocalOption func(*LocalController)

// WithFinishHook registers fn to receive every finished run.
func WithFinishHook(fn FinishFunc) LocalOption {
	return func(c *LocalController) {
		c.onFinish = fn
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *logging.Logger) LocalOption {
	return func(c *LocalController) {
		c.log = l
	}
}

// NewLocalController wraps e. data supplies the sequence for each Reset.
func NewLocalController(e *engine.Engine, data func() ([]int, error), opts ...LocalOption) *LocalController {
	c := &LocalController{
		engine: e,
		data:   data,
		log:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the engine state.
func (c *LocalController) Snapshot() engine.Snapshot {
	return c.engine.Snapshot()
}

// Reset loads a fresh sequence from the data source.
func (c *LocalController) Reset(ctx context.Context) error {
	values, err := c.data()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	return c.engine.Reset(values)
}

// Run sorts the current sequence with alg. After a finished run the
// current values are loaded again first, so sorting twice re-sorts what is
// on screen.
func (c *LocalController) Run(ctx context.Context, alg engine.Algorithm) error {
	if snap := c.engine.Snapshot(); snap.Status.Terminal() {
		if err := c.engine.Reset(snap.Values); err != nil {
			return err
		}
	}

	startedAt := time.Now()
	h, err := c.engine.Run(ctx, alg)
	if err != nil {
		return err
	}

	if c.onFinish != nil {
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			result := h.Wait()
			c.onFinish(result, startedAt, time.Now())
		}()
	}
	return nil
}

// Cancel cancels the active run, if any.
func (c *LocalController) Cancel(ctx context.Context) error {
	if h := c.engine.CancelActive(); h != nil {
		c.log.Debug("cancel requested", "run", h.ID())
	}
	return nil
}

// Close cancels the active run and waits until every finish hook has
// returned.
func (c *LocalController) Close() {
	if h := c.engine.CancelActive(); h != nil {
		h.Wait()
	}
	c.pending.Wait()
}

// Subscribe registers o with the engine.
func (c *LocalController) Subscribe(o engine.Observer) func() {
	return c.engine.Subscribe(o)
}
