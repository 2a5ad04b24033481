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
	"github.com/thruflo/sortvis/internal/testutil"
)

func staticData(values ...int) func() ([]int, error) {
	return func() ([]int, error) {
		return append([]int(nil), values...), nil
	}
}

type finishRecorder struct {
	results chan engine.Result
}

func newFinishRecorder() *finishRecorder {
	return &finishRecorder{results: make(chan engine.Result, 4)}
}

func (r *finishRecorder) hook(result engine.Result, startedAt, finishedAt time.Time) {
	r.results <- result
}

func (r *finishRecorder) next(t *testing.T) engine.Result {
	t.Helper()
	select {
	case res := <-r.results:
		return res
	case <-time.After(testutil.DefaultRunTimeout):
		t.Fatal("timed out waiting for run to finish")
		return engine.Result{}
	}
}

func TestLocalControllerResetAndRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	finished := newFinishRecorder()
	ctrl := NewLocalController(engine.New(engine.Options{}), staticData(testutil.Scenario()...), WithFinishHook(finished.hook))

	require.NoError(t, ctrl.Reset(ctx))
	assert.Equal(t, testutil.Scenario(), ctrl.Snapshot().Values)

	require.NoError(t, ctrl.Run(ctx, engine.Quick))
	res := finished.next(t)
	assert.Equal(t, engine.StatusCompleted, res.Status)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Values)
	assert.Equal(t, engine.StatusCompleted, ctrl.Snapshot().Status)
}

func TestLocalControllerSortAgainAfterFinish(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	finished := newFinishRecorder()
	ctrl := NewLocalController(engine.New(engine.Options{}), staticData(3, 2, 1), WithFinishHook(finished.hook))
	require.NoError(t, ctrl.Reset(ctx))

	require.NoError(t, ctrl.Run(ctx, engine.Bubble))
	first := finished.next(t)
	assert.Positive(t, first.Steps)

	require.NoError(t, ctrl.Run(ctx, engine.Selection))
	second := finished.next(t)
	assert.Equal(t, engine.Selection, second.Algorithm)
	assert.Equal(t, []int{1, 2, 3}, second.Values)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestLocalControllerRunWithoutData(t *testing.T) {
	t.Parallel()

	ctrl := NewLocalController(engine.New(engine.Options{}), staticData(1))
	err := ctrl.Run(context.Background(), engine.Bubble)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestLocalControllerDataError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctrl := NewLocalController(engine.New(engine.Options{}), func() ([]int, error) { return nil, boom })
	err := ctrl.Reset(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLocalControllerCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	finished := newFinishRecorder()
	ctrl := NewLocalController(
		engine.New(engine.Options{StepDelay: time.Hour}),
		staticData(testutil.Shuffled(20, 3)...),
		WithFinishHook(finished.hook),
	)
	require.NoError(t, ctrl.Reset(ctx))

	// Cancel with nothing running is a no-op.
	require.NoError(t, ctrl.Cancel(ctx))

	var mu sync.Mutex
	var frames []engine.Frame
	unsubscribe := ctrl.Subscribe(engine.ObserverFunc(func(f engine.Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}))
	defer unsubscribe()

	require.NoError(t, ctrl.Run(ctx, engine.Merge))
	testutil.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) > 0
	})
	require.NoError(t, ctrl.Cancel(ctx))

	res := finished.next(t)
	assert.Equal(t, engine.StatusCancelled, res.Status)
	testutil.AssertPermutation(t, testutil.Shuffled(20, 3), res.Values)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, engine.StatusCancelled, frames[len(frames)-1].Status)
}

func TestLocalControllerCloseWaitsForHooks(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	var mu sync.Mutex
	var recorded []engine.Status
	ctrl := NewLocalController(
		engine.New(engine.Options{StepDelay: time.Hour}),
		staticData(3, 2, 1),
		WithFinishHook(func(result engine.Result, startedAt, finishedAt time.Time) {
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			recorded = append(recorded, result.Status)
			mu.Unlock()
		}),
	)
	require.NoError(t, ctrl.Reset(ctx))
	require.NoError(t, ctrl.Run(ctx, engine.Bubble))

	ctrl.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []engine.Status{engine.StatusCancelled}, recorded)
}
