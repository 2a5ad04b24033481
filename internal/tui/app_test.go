package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/engine"
)

type fakeController struct {
	mu      sync.Mutex
	snap    engine.Snapshot
	runs    []engine.Algorithm
	resets  int
	cancels int
	runErr  error
	msg     string
}

func newFakeController(status engine.Status, values ...int) *fakeController {
	return &fakeController{snap: engine.Snapshot{
		Values:   values,
		Progress: engine.Progress{Primary: engine.NoIndex, Secondary: engine.NoIndex, Status: status},
	}}
}

func (f *fakeController) Snapshot() engine.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeController) Run(ctx context.Context, alg engine.Algorithm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, alg)
	return f.runErr
}

func (f *fakeController) Cancel(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeController) Subscribe(o engine.Observer) func() {
	return func() {}
}

func (f *fakeController) Message() string {
	return f.msg
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.AnimationDuration = 0.1
	return s
}

func TestAppSelectAndCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	app := NewApp(newFakeController(engine.StatusIdle, 3, 1, 2), testSettings())
	assert.Equal(t, engine.Bubble, app.Selected())

	app.HandleKey(ctx, Command{Action: ActionSelect, Algorithm: engine.Merge})
	assert.Equal(t, engine.Merge, app.Selected())

	app.HandleKey(ctx, Command{Action: ActionNextAlgorithm})
	assert.Equal(t, engine.Quick, app.Selected())
	app.HandleKey(ctx, Command{Action: ActionNextAlgorithm})
	assert.Equal(t, engine.Bubble, app.Selected())
	app.HandleKey(ctx, Command{Action: ActionPrevAlgorithm})
	assert.Equal(t, engine.Quick, app.Selected())
}

func TestAppSortResetCancelWhileIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := newFakeController(engine.StatusIdle, 3, 1, 2)
	app := NewApp(ctrl, testSettings())

	app.HandleKey(ctx, Command{Action: ActionSelect, Algorithm: engine.Insertion})
	assert.False(t, app.HandleKey(ctx, Command{Action: ActionSort}))
	assert.False(t, app.HandleKey(ctx, Command{Action: ActionReset}))
	assert.False(t, app.HandleKey(ctx, Command{Action: ActionCancel}))

	assert.Equal(t, []engine.Algorithm{engine.Insertion}, ctrl.runs)
	assert.Equal(t, 1, ctrl.resets)
	assert.Equal(t, 0, ctrl.cancels, "cancel is disabled while idle")
}

func TestAppIgnoresSortAndResetWhileRunning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := newFakeController(engine.StatusRunning, 3, 1, 2)
	app := NewApp(ctrl, testSettings())

	app.HandleKey(ctx, Command{Action: ActionSort})
	app.HandleKey(ctx, Command{Action: ActionReset})
	app.HandleKey(ctx, Command{Action: ActionSelect, Algorithm: engine.Quick})
	app.HandleKey(ctx, Command{Action: ActionNextAlgorithm})
	assert.Empty(t, ctrl.runs)
	assert.Zero(t, ctrl.resets)
	assert.Equal(t, engine.Bubble, app.Selected())

	app.HandleKey(ctx, Command{Action: ActionCancel})
	assert.Equal(t, 1, ctrl.cancels)
}

func TestAppQuit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	idle := newFakeController(engine.StatusCompleted, 1)
	assert.True(t, NewApp(idle, testSettings()).HandleKey(ctx, Command{Action: ActionQuit}))
	assert.Zero(t, idle.cancels)

	running := newFakeController(engine.StatusRunning, 1)
	assert.True(t, NewApp(running, testSettings()).HandleKey(ctx, Command{Action: ActionQuit}))
	assert.Equal(t, 1, running.cancels, "quitting cancels the active run")
}

func TestAppShowsErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := newFakeController(engine.StatusIdle, 1)
	ctrl.runErr = errors.New("run refused")
	app := NewApp(ctrl, testSettings())

	app.HandleKey(ctx, Command{Action: ActionSort})
	assert.Equal(t, "run refused", app.Message())

	ctrl.runErr = nil
	app.HandleKey(ctx, Command{Action: ActionSort})
	assert.Empty(t, app.Message())

	ctrl.msg = "remote failure"
	assert.Equal(t, "remote failure", app.Message())
}

func TestAppView(t *testing.T) {
	t.Parallel()

	ctrl := newFakeController(engine.StatusCompleted, 1, 2, 3, 4, 5)
	ctrl.snap.Elapsed = 1500 * time.Millisecond
	ctrl.snap.HasElapsed = true
	ctrl.snap.Steps = 10
	app := NewApp(ctrl, testSettings())

	lines := app.View(80, 24)
	assert.Len(t, lines, 24)
	for _, line := range lines {
		assert.LessOrEqual(t, VisibleWidth(line), 80)
	}

	screen := strings.Join(lines, "\n")
	assert.Contains(t, screen, "COMPLETED")
	assert.Contains(t, screen, "Steps: 10")
	assert.Contains(t, screen, "Time: 1.500 s")
	assert.Contains(t, screen, "Bubble")
	assert.Contains(t, screen, "Quick")
}

func TestAppViewSettings(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.ShowTimer = false
	settings.ShowBarValues = false
	app := NewApp(newFakeController(engine.StatusIdle, 5, 4), settings)

	screen := strings.Join(app.View(60, 20), "\n")
	assert.NotContains(t, screen, "Time:")
	assert.Contains(t, screen, "IDLE")

	settings.ShowTimer = true
	timed := NewApp(newFakeController(engine.StatusIdle, 5, 4), settings)
	assert.Contains(t, strings.Join(timed.View(60, 20), "\n"), "Time: N/A")
}

func TestAppViewWithoutData(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeController(engine.StatusIdle), testSettings())
	assert.Contains(t, strings.Join(app.View(80, 24), "\n"), "no data")
}

func TestAppObserveSignalsRedraw(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeController(engine.StatusIdle), testSettings())

	app.Observe(engine.Frame{Status: engine.StatusRunning})
	assert.Len(t, app.redraw, 0)

	app.Observe(engine.Frame{Status: engine.StatusCompleted})
	app.Observe(engine.Frame{Status: engine.StatusCancelled})
	require.Len(t, app.redraw, 1)
}
