package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput is returned by Reset for an empty sequence and by Run
	// when there is nothing valid to sort (no data, unknown algorithm, or a
	// finished run that has not been reset).
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyRunning is returned by Run and Reset while a run is active.
	ErrAlreadyRunning = errors.New("run already in progress")
)

// NoIndex marks an absent highlight.
const NoIndex = -1

// Algorithm selects one of the supported sorting algorithms.
type Algorithm int

const (
	Bubble Algorithm = iota
	Selection
	Insertion
	Merge
	Quick
)

var algorithmNames = [...]string{
	Bubble:    "Bubble",
	Selection: "Selection",
	Insertion: "Insertion",
	Merge:     "Merge",
	Quick:     "Quick",
}

// Algorithms returns every algorithm in display order.
func Algorithms() []Algorithm {
	return []Algorithm{Bubble, Selection, Insertion, Merge, Quick}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a >= Bubble && a <= Quick
}

// String returns the display name of the algorithm.
func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// ParseAlgorithm looks up an algorithm by name, ignoring case and an
// optional "sort" suffix ("quick", "Quick", "quicksort").
func ParseAlgorithm(s string) (Algorithm, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(strings.TrimSuffix(name, "sort"), "-")
	name = strings.TrimSpace(name)
	for _, a := range Algorithms() {
		if strings.ToLower(a.String()) == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Status is the lifecycle state of the engine's current run.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
)

// String returns a lower-case description of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusRunning, StatusCompleted, StatusCancelled} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Progress is the observable state of the current run.
// Primary and Secondary are NoIndex unless the status is StatusRunning.
// HasElapsed is false while idle and after a cancelled run.
type Progress struct {
	Primary    int           `json:"primary"`
	Secondary  int           `json:"secondary"`
	Elapsed    time.Duration `json:"elapsed"`
	HasElapsed bool          `json:"has_elapsed"`
	Status     Status        `json:"status"`
	Steps      int           `json:"steps"`
}

func idleProgress() Progress {
	return Progress{Primary: NoIndex, Secondary: NoIndex, Status: StatusIdle}
}

// Snapshot is an immutable copy of the engine state.
type Snapshot struct {
	RunID     string    `json:"run_id,omitempty"`
	Algorithm Algorithm `json:"algorithm"`
	Values    []int     `json:"values"`
	Progress
}

// Frame is delivered to observers at every checkpoint and once more when the
// run completes or is cancelled. Seq is the checkpoint number starting at 1;
// the final frame carries one past the last checkpoint.
type Frame struct {
	RunID      string        `json:"run_id"`
	Algorithm  Algorithm     `json:"algorithm"`
	Seq        int           `json:"seq"`
	Values     []int         `json:"values"`
	Primary    int           `json:"primary"`
	Secondary  int           `json:"secondary"`
	Elapsed    time.Duration `json:"elapsed"`
	HasElapsed bool          `json:"has_elapsed"`
	Status     Status        `json:"status"`
}

// Observer receives frames on the run goroutine, in order.
// A slow observer slows the run.
type Observer interface {
	Observe(Frame)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Frame)

// Observe calls f(frame).
func (f ObserverFunc) Observe(frame Frame) {
	f(frame)
}

// Result is the outcome of a finished run.
type Result struct {
	RunID      string        `json:"run_id"`
	Algorithm  Algorithm     `json:"algorithm"`
	Status     Status        `json:"status"`
	Elapsed    time.Duration `json:"elapsed"`
	HasElapsed bool          `json:"has_elapsed"`
	Steps      int           `json:"steps"`
	Values     []int         `json:"values"`
}
