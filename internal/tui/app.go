package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/logging"
)

// Lines used by View around the chart: title, picker, status, blank,
// message, shortcuts and the two chart borders.
const chromeLines = 8

// messenger is implemented by controllers that report errors
// asynchronously.
type messenger interface {
	Message() string
}

// App is the terminal visualizer. It renders the controller's state and
// turns key presses into Reset, Run and Cancel calls.
type App struct {
	ctrl     Controller
	settings config.Settings
	log      *logging.Logger

	mu       sync.Mutex
	selected engine.Algorithm
	message  string

	redraw chan struct{}
}

// NewApp creates an App driving ctrl with the given display settings.
func NewApp(ctrl Controller, settings config.Settings) *App {
	return &App{
		ctrl:     ctrl,
		settings: settings,
		log:      logging.With("component", "tui"),
		redraw:   make(chan struct{}, 1),
	}
}

// Observe requests a redraw when a run leaves the running state. Running
// frames are picked up by the animation ticker instead.
func (a *App) Observe(f engine.Frame) {
	if f.Status == engine.StatusRunning {
		return
	}
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

// Selected returns the algorithm the next Sort will use.
func (a *App) Selected() engine.Algorithm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Message returns the status line message.
func (a *App) Message() string {
	a.mu.Lock()
	msg := a.message
	a.mu.Unlock()
	if msg == "" {
		if m, ok := a.ctrl.(messenger); ok {
			return m.Message()
		}
	}
	return msg
}

func (a *App) setMessage(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		a.message = ""
		return
	}
	a.message = err.Error()
}

// running reports whether the controller has an active run.
func (a *App) running() bool {
	return a.ctrl.Snapshot().Status == engine.StatusRunning
}

// HandleKey applies cmd and reports whether the app should quit. Sort and
// Reset are ignored while sorting. Cancel only applies while sorting.
func (a *App) HandleKey(ctx context.Context, cmd Command) (quit bool) {
	running := a.running()

	switch cmd.Action {
	case ActionQuit:
		if running {
			a.setMessage(a.ctrl.Cancel(ctx))
		}
		return true

	case ActionSelect:
		if !running {
			a.mu.Lock()
			a.selected = cmd.Algorithm
			a.mu.Unlock()
		}

	case ActionNextAlgorithm, ActionPrevAlgorithm:
		if !running {
			a.cycle(cmd.Action == ActionNextAlgorithm)
		}

	case ActionSort:
		if !running {
			a.setMessage(a.ctrl.Run(ctx, a.Selected()))
		}

	case ActionReset:
		if !running {
			a.setMessage(a.ctrl.Reset(ctx))
		}

	case ActionCancel:
		if running {
			a.setMessage(a.ctrl.Cancel(ctx))
		}
	}
	return false
}

func (a *App) cycle(forward bool) {
	n := len(engine.Algorithms())
	a.mu.Lock()
	defer a.mu.Unlock()
	step := 1
	if !forward {
		step = n - 1
	}
	a.selected = engine.Algorithm((int(a.selected) + step) % n)
}

// View renders the screen as lines of at most width visible characters.
func (a *App) View(width, height int) []string {
	snap := a.ctrl.Snapshot()
	running := snap.Status == engine.StatusRunning

	lines := make([]string, 0, height)
	lines = append(lines, Style("sortvis", Bold)+Style("  sorting algorithm visualizer", Dim))
	lines = append(lines, a.picker(running))

	status := fmt.Sprintf("Status: %s   Steps: %d", FormatStatus(snap.Status), snap.Steps)
	if running || snap.Status.Terminal() {
		status += "   Algorithm: " + snap.Algorithm.String()
	}
	if a.settings.ShowTimer {
		status += "   Time: " + FormatElapsed(snap.Progress)
	}
	lines = append(lines, Truncate(status, width))

	chartHeight := max(height-chromeLines, 1)
	if a.settings.ShowBarValues {
		chartHeight = max(chartHeight-1, 1)
	}
	chart := RenderChart(snap.Values, snap.Primary, snap.Secondary, ChartOptions{
		Width:      width - 4,
		Height:     chartHeight,
		Highlight:  a.settings.Highlight,
		ShowValues: a.settings.ShowBarValues,
	})
	if len(snap.Values) == 0 {
		chart = []string{CenterText("no data, press r to load", width-4)}
	}
	lines = append(lines, BoxWithContent(width, chart)...)

	lines = append(lines, "")
	if msg := a.Message(); msg != "" {
		lines = append(lines, Truncate(Style(msg, FgRed), width))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, Truncate(a.shortcuts(running), width))
	return lines
}

func (a *App) picker(running bool) string {
	selected := a.Selected()
	parts := make([]string, 0, len(engine.Algorithms()))
	for _, alg := range engine.Algorithms() {
		label := fmt.Sprintf(" %d %s ", int(alg)+1, alg)
		switch {
		case alg == selected:
			label = Style(label, Reverse)
		case running:
			label = Style(label, Dim)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (a *App) shortcuts(running bool) string {
	key := func(k, label string, enabled bool) string {
		if !enabled {
			return Style(k+" "+label, Dim)
		}
		return Style(k, Bold, FgCyan) + " " + label
	}
	return strings.Join([]string{
		key("1-5/tab", "algorithm", !running),
		key("s", "sort", !running),
		key("r", "reset", !running),
		key("c", "cancel", running),
		key("q", "quit", true),
	}, "  ")
}

func (a *App) draw(t *Terminal) {
	w, h := t.Size()
	t.Draw(a.View(w, h))
}

// Run takes over the terminal until the user quits or ctx is done. When
// animations are enabled the screen is redrawn every frame interval;
// otherwise only after key presses and when a run finishes. A completed
// run rings the bell.
func (a *App) Run(ctx context.Context, t *Terminal) error {
	if err := t.EnterRaw(); err != nil {
		return err
	}
	defer t.ExitRaw()
	t.HideCursor()
	defer t.ShowCursor()
	t.Clear()
	defer t.Clear()

	unsubscribe := a.ctrl.Subscribe(a)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan KeyEvent)
	readErr := make(chan error, 1)
	go func() {
		reader := NewKeyReader(t)
		for {
			ev, err := reader.ReadKey()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case keys <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if a.settings.AnimationsEnabled {
		ticker := time.NewTicker(a.settings.FrameInterval())
		defer ticker.Stop()
		tick = ticker.C
	}

	a.draw(t)
	for {
		select {
		case <-ctx.Done():
			_ = a.ctrl.Cancel(context.Background())
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read key: %w", err)
		case ev := <-keys:
			if a.HandleKey(ctx, ParseKey(ev)) {
				a.log.Debug("quit")
				return nil
			}
			a.draw(t)
		case <-tick:
			if a.running() {
				a.draw(t)
			}
		case <-a.redraw:
			a.draw(t)
			if a.ctrl.Snapshot().Status == engine.StatusCompleted {
				t.RingBell()
			}
		}
	}
}
