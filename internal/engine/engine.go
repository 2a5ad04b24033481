package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thruflo/sortvis/internal/logging"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// StepDelay is how long a run suspends at each checkpoint. Zero yields
	// the processor without sleeping.
	StepDelay time.Duration

	// Logger receives run lifecycle entries. Defaults to the package-level
	// logger.
	Logger *logging.Logger

	// Now is the clock used for elapsed time; for deterministic tests.
	Now func() time.Time

	// NewID generates run IDs. Defaults to random UUIDs.
	NewID func() string
}

// Engine owns a sequence of integers and sorts it one run at a time.
type Engine struct {
	mu        sync.RWMutex
	values    []int
	progress  Progress
	runID     string
	algorithm Algorithm
	active    *Handle

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int

	stepDelay time.Duration
	log       *logging.Logger
	now       func() time.Time
	newID     func() string
}

type observerEntry struct {
	id       int
	observer Observer
}

// New creates an idle Engine with no data. Call Reset before Run.
func New(opts Options) *Engine {
	e := &Engine{
		progress:  idleProgress(),
		stepDelay: opts.StepDelay,
		log:       opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if e.log == nil {
		e.log = logging.Default()
	}
	e.log = e.log.With("component", "engine")
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Reset replaces the sequence and clears progress back to idle.
// It fails with ErrInvalidInput for an empty sequence and with
// ErrAlreadyRunning while a run is active.
func (e *Engine) Reset(values []int) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: sequence is empty", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return ErrAlreadyRunning
	}

	e.values = append(make([]int, 0, len(values)), values...)
	e.progress = idleProgress()
	e.runID = ""
	e.algorithm = Bubble

	e.log.Debug("reset", "length", len(values))
	return nil
}

// Run starts sorting the current sequence with alg and returns immediately.
// The run stops early when ctx is cancelled or the handle is cancelled.
//
// Run fails with ErrAlreadyRunning if a run is active, and with
// ErrInvalidInput if alg is unknown, no sequence has been set, or the
// previous run finished and Reset has not been called since.
func (e *Engine) Run(ctx context.Context, alg Algorithm) (*Handle, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrInvalidInput, int(alg))
	}

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if len(e.values) == 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: no sequence, reset required", ErrInvalidInput)
	}
	if e.progress.Status != StatusIdle {
		status := e.progress.Status
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: reset required after %s run", ErrInvalidInput, status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     e.newID(),
		alg:    alg,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	e.active = h
	e.runID = h.id
	e.algorithm = alg
	e.progress = Progress{Primary: NoIndex, Secondary: NoIndex, Status: StatusRunning}

	r := &run{
		engine: e,
		ctx:    runCtx,
		handle: h,
		a:      e.values,
		start:  e.now(),
		delay:  e.stepDelay,
		log:    e.log.WithFields(map[string]interface{}{"run": h.id, "algorithm": alg}),
	}
	e.mu.Unlock()

	go r.execute()
	return h, nil
}

// Cancel requests cooperative cancellation of the run behind h.
// It is safe to call more than once and after the run has finished.
func (e *Engine) Cancel(h *Handle) {
	if h == nil {
		return
	}
	h.Cancel()
}

// CancelActive cancels whichever run is active and returns its handle, or
// nil when the engine is not running.
func (e *Engine) CancelActive() *Handle {
	e.mu.RLock()
	h := e.active
	e.mu.RUnlock()
	e.Cancel(h)
	return h
}

// Active returns the handle of the active run, or nil.
func (e *Engine) Active() *Handle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// Snapshot returns a copy of the sequence and progress as of the latest
// checkpoint.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		RunID:     e.runID,
		Algorithm: e.algorithm,
		Values:    append([]int(nil), e.values...),
		Progress:  e.progress,
	}
}

// Values returns a copy of the sequence.
func (e *Engine) Values() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]int(nil), e.values...)
}

// Progress returns the current run progress.
func (e *Engine) Progress() Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progress
}

// Subscribe registers o for frames of every subsequent checkpoint.
// The returned function removes the subscription.
func (e *Engine) Subscribe(o Observer) (unsubscribe func()) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()

	e.nextObsID++
	id := e.nextObsID

	// Copy on write so a run can iterate its view without holding obsMu.
	next := make([]observerEntry, 0, len(e.observers)+1)
	next = append(next, e.observers...)
	e.observers = append(next, observerEntry{id: id, observer: o})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.obsMu.Lock()
			defer e.obsMu.Unlock()
			kept := make([]observerEntry, 0, len(e.observers))
			for _, entry := range e.observers {
				if entry.id != id {
					kept = append(kept, entry)
				}
			}
			e.observers = kept
		})
	}
}

func (e *Engine) observerList() []observerEntry {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	return e.observers
}

// Handle refers to a single run.
type Handle struct {
	id     string
	alg    Algorithm
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// ID returns the run ID.
func (h *Handle) ID() string {
	return h.id
}

// Algorithm returns the algorithm being run.
func (h *Handle) Algorithm() Algorithm {
	return h.alg
}

// Cancel requests cooperative cancellation. Idempotent.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed after the run's final frame has been delivered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run finishes and returns its result.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}
