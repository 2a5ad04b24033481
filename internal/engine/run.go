package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/thruflo/sortvis/internal/logging"
)

// run is the state of one execution. Its methods are called on the run
// goroutine with engine.mu held for writing, except where noted.
type run struct {
	engine    *Engine
	ctx       context.Context
	handle    *Handle
	a         []int
	start     time.Time
	delay     time.Duration
	steps     int
	cancelled bool
	log       *logging.Logger
}

func (r *run) execute() {
	e := r.engine
	r.log.Debug("run started", "length", len(r.a))

	e.mu.Lock()
	if r.proceed() {
		r.sort()
	}

	status := StatusCompleted
	if r.cancelled {
		status = StatusCancelled
	}

	e.progress.Primary = NoIndex
	e.progress.Secondary = NoIndex
	e.progress.Status = status
	e.progress.Steps = r.steps
	if status == StatusCompleted {
		e.progress.Elapsed = e.now().Sub(r.start)
		e.progress.HasElapsed = true
	} else {
		e.progress.Elapsed = 0
		e.progress.HasElapsed = false
	}

	final := r.frame(r.steps + 1)
	result := Result{
		RunID:      r.handle.id,
		Algorithm:  r.handle.alg,
		Status:     status,
		Elapsed:    e.progress.Elapsed,
		HasElapsed: e.progress.HasElapsed,
		Steps:      r.steps,
		Values:     append([]int(nil), r.a...),
	}
	e.mu.Unlock()

	for _, entry := range e.observerList() {
		entry.observer.Observe(final)
	}

	e.mu.Lock()
	e.active = nil
	e.mu.Unlock()

	r.handle.result = result
	close(r.handle.done)
	r.handle.cancel()

	r.log.Info("run finished", "status", status, "steps", r.steps, "elapsed", result.Elapsed)
}

func (r *run) sort() {
	n := len(r.a)
	switch r.handle.alg {
	case Bubble:
		r.bubble()
	case Selection:
		r.selection()
	case Insertion:
		r.insertion()
	case Merge:
		r.mergeSort(0, n-1)
	case Quick:
		r.quickSort(0, n-1)
	}
}

// checkpoint publishes the step's highlights, hands a frame to observers,
// suspends, and then reports whether the run may continue. When it returns
// false the caller must return without writing to the array again.
func (r *run) checkpoint(primary, secondary int) bool {
	e := r.engine
	r.steps++

	e.progress.Primary = primary
	e.progress.Secondary = secondary
	e.progress.Elapsed = e.now().Sub(r.start)
	e.progress.HasElapsed = true
	e.progress.Steps = r.steps

	observers := e.observerList()
	var frame Frame
	if len(observers) > 0 {
		frame = r.frame(r.steps)
	}
	e.mu.Unlock()

	for _, entry := range observers {
		entry.observer.Observe(frame)
	}
	r.pause()

	e.mu.Lock()
	return r.proceed()
}

// proceed reports false once cancellation has been requested.
func (r *run) proceed() bool {
	if r.cancelled {
		return false
	}
	if r.ctx.Err() != nil {
		r.cancelled = true
		return false
	}
	return true
}

// pause suspends the run goroutine. Called without the engine lock.
func (r *run) pause() {
	if r.delay <= 0 {
		runtime.Gosched()
		return
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-r.ctx.Done():
	case <-timer.C:
	}
}

func (r *run) frame(seq int) Frame {
	p := r.engine.progress
	return Frame{
		RunID:      r.handle.id,
		Algorithm:  r.handle.alg,
		Seq:        seq,
		Values:     append([]int(nil), r.a...),
		Primary:    p.Primary,
		Secondary:  p.Secondary,
		Elapsed:    p.Elapsed,
		HasElapsed: p.HasElapsed,
		Status:     p.Status,
	}
}
