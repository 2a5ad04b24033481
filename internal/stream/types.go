// Package stream carries engine progress and driver commands between the
// engine, the web viewer and remote watchers as JSON events.
package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thruflo/sortvis/internal/engine"
)

// MessageType identifies the type of message in the stream.
type MessageType string

const (
	// Engine → client message types

	// MessageTypeFrame is a checkpoint or terminal frame of a run.
	MessageTypeFrame MessageType = "frame"
	// MessageTypeResult is the outcome of a finished run.
	MessageTypeResult MessageType = "result"
	// MessageTypeSnapshot is the engine state, sent to clients on connect.
	MessageTypeSnapshot MessageType = "snapshot"
	// MessageTypeAck is a command acknowledgment.
	MessageTypeAck MessageType = "ack"

	// Client → engine command types

	// MessageTypeCommand is a command from a client.
	MessageTypeCommand MessageType = "command"
)

// CommandType identifies the type of command sent by a client.
type CommandType string

const (
	// CommandTypeReset replaces the sequence, either with Values or with a
	// generated data set.
	CommandTypeReset CommandType = "reset"
	// CommandTypeRun starts sorting with Algorithm.
	CommandTypeRun CommandType = "run"
	// CommandTypeCancel cancels the active run.
	CommandTypeCancel CommandType = "cancel"
)

// Event represents a message in the stream.
type Event struct {
	// Seq is assigned by the Broadcaster. Zero for events not yet
	// broadcast.
	Seq uint64 `json:"seq,omitempty"`

	// Type identifies what kind of event this is.
	Type MessageType `json:"type"`

	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// Data contains the type-specific payload.
	// Use the typed accessor methods to get the concrete type.
	Data json.RawMessage `json:"data"`
}

// NewEvent creates a new Event with the given type and data.
func NewEvent(msgType MessageType, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}, nil
}

// MustNewEvent creates a new Event, panicking on error.
// Use only when the data is known to be serializable.
func MustNewEvent(msgType MessageType, data any) *Event {
	e, err := NewEvent(msgType, data)
	if err != nil {
		panic(err)
	}
	return e
}

// Marshal serializes the event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent deserializes an Event from JSON bytes.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("failed to unmarshal event: missing type")
	}
	return &e, nil
}

func decodeData[T any](e *Event, want MessageType) (*T, error) {
	if e.Type != want {
		return nil, fmt.Errorf("event is not a %s event: %s", want, e.Type)
	}
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s data: %w", want, err)
	}
	return &data, nil
}

// FrameData returns the frame if this is a frame event.
func (e *Event) FrameData() (*FrameEvent, error) {
	return decodeData[FrameEvent](e, MessageTypeFrame)
}

// ResultData returns the result if this is a result event.
func (e *Event) ResultData() (*ResultEvent, error) {
	return decodeData[ResultEvent](e, MessageTypeResult)
}

// SnapshotData returns the snapshot if this is a snapshot event.
func (e *Event) SnapshotData() (*SnapshotEvent, error) {
	return decodeData[SnapshotEvent](e, MessageTypeSnapshot)
}

// CommandData returns the command if this is a command event.
func (e *Event) CommandData() (*Command, error) {
	return decodeData[Command](e, MessageTypeCommand)
}

// AckData returns the ack if this is an ack event.
func (e *Event) AckData() (*Ack, error) {
	return decodeData[Ack](e, MessageTypeAck)
}

// millis converts d to fractional milliseconds for JSON clients.
func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// FrameEvent is the wire form of engine.Frame.
type FrameEvent struct {
	RunID      string           `json:"run_id"`
	Algorithm  engine.Algorithm `json:"algorithm"`
	Seq        int              `json:"seq"`
	Values     []int            `json:"values"`
	Primary    int              `json:"primary"`
	Secondary  int              `json:"secondary"`
	ElapsedMS  float64          `json:"elapsed_ms"`
	HasElapsed bool             `json:"has_elapsed"`
	Status     engine.Status    `json:"status"`
}

// NewFrameEvent converts an engine frame.
func NewFrameEvent(f engine.Frame) *FrameEvent {
	return &FrameEvent{
		RunID:      f.RunID,
		Algorithm:  f.Algorithm,
		Seq:        f.Seq,
		Values:     f.Values,
		Primary:    f.Primary,
		Secondary:  f.Secondary,
		ElapsedMS:  millis(f.Elapsed),
		HasElapsed: f.HasElapsed,
		Status:     f.Status,
	}
}

// Frame converts the event back into an engine frame.
func (f *FrameEvent) Frame() engine.Frame {
	return engine.Frame{
		RunID:      f.RunID,
		Algorithm:  f.Algorithm,
		Seq:        f.Seq,
		Values:     f.Values,
		Primary:    f.Primary,
		Secondary:  f.Secondary,
		Elapsed:    fromMillis(f.ElapsedMS),
		HasElapsed: f.HasElapsed,
		Status:     f.Status,
	}
}

// Snapshot returns the engine state the frame describes.
func (f *FrameEvent) Snapshot() engine.Snapshot {
	steps := f.Seq
	if f.Status.Terminal() {
		steps = f.Seq - 1
	}
	return engine.Snapshot{
		RunID:     f.RunID,
		Algorithm: f.Algorithm,
		Values:    f.Values,
		Progress: engine.Progress{
			Primary:    f.Primary,
			Secondary:  f.Secondary,
			Elapsed:    fromMillis(f.ElapsedMS),
			HasElapsed: f.HasElapsed,
			Status:     f.Status,
			Steps:      steps,
		},
	}
}

// ResultEvent is the wire form of engine.Result.
type ResultEvent struct {
	RunID      string           `json:"run_id"`
	Algorithm  engine.Algorithm `json:"algorithm"`
	Status     engine.Status    `json:"status"`
	ElapsedMS  float64          `json:"elapsed_ms"`
	HasElapsed bool             `json:"has_elapsed"`
	Steps      int              `json:"steps"`
	Values     []int            `json:"values"`
}

// NewResultEvent converts an engine result.
func NewResultEvent(r engine.Result) *ResultEvent {
	return &ResultEvent{
		RunID:      r.RunID,
		Algorithm:  r.Algorithm,
		Status:     r.Status,
		ElapsedMS:  millis(r.Elapsed),
		HasElapsed: r.HasElapsed,
		Steps:      r.Steps,
		Values:     r.Values,
	}
}

// Result converts back to an engine result.
func (r *ResultEvent) Result() engine.Result {
	return engine.Result{
		RunID:      r.RunID,
		Algorithm:  r.Algorithm,
		Status:     r.Status,
		Elapsed:    fromMillis(r.ElapsedMS),
		HasElapsed: r.HasElapsed,
		Steps:      r.Steps,
		Values:     r.Values,
	}
}

// resultFromFrame derives the result carried by a terminal frame, whose
// sequence number is one past the last checkpoint.
func resultFromFrame(f engine.Frame) engine.Result {
	return engine.Result{
		RunID:      f.RunID,
		Algorithm:  f.Algorithm,
		Status:     f.Status,
		Elapsed:    f.Elapsed,
		HasElapsed: f.HasElapsed,
		Steps:      f.Seq - 1,
		Values:     f.Values,
	}
}

// SnapshotEvent is the wire form of engine.Snapshot.
type SnapshotEvent struct {
	RunID      string           `json:"run_id,omitempty"`
	Algorithm  engine.Algorithm `json:"algorithm"`
	Values     []int            `json:"values"`
	Primary    int              `json:"primary"`
	Secondary  int              `json:"secondary"`
	ElapsedMS  float64          `json:"elapsed_ms"`
	HasElapsed bool             `json:"has_elapsed"`
	Status     engine.Status    `json:"status"`
	Steps      int              `json:"steps"`
}

// NewSnapshotEvent converts an engine snapshot.
func NewSnapshotEvent(s engine.Snapshot) *SnapshotEvent {
	return &SnapshotEvent{
		RunID:      s.RunID,
		Algorithm:  s.Algorithm,
		Values:     s.Values,
		Primary:    s.Primary,
		Secondary:  s.Secondary,
		ElapsedMS:  millis(s.Elapsed),
		HasElapsed: s.HasElapsed,
		Status:     s.Status,
		Steps:      s.Steps,
	}
}

// Snapshot converts the event back into an engine snapshot.
func (s *SnapshotEvent) Snapshot() engine.Snapshot {
	return engine.Snapshot{
		RunID:     s.RunID,
		Algorithm: s.Algorithm,
		Values:    s.Values,
		Progress: engine.Progress{
			Primary:    s.Primary,
			Secondary:  s.Secondary,
			Elapsed:    fromMillis(s.ElapsedMS),
			HasElapsed: s.HasElapsed,
			Status:     s.Status,
			Steps:      s.Steps,
		},
	}
}

// Command represents a command from a client.
type Command struct {
	// ID is a unique identifier for this command, used for acknowledgment.
	ID string `json:"id"`

	// Type identifies what kind of command this is.
	Type CommandType `json:"type"`

	// Algorithm names the algorithm for run commands.
	Algorithm string `json:"algorithm,omitempty"`

	// Values is the new sequence for reset commands. When empty, DataSet,
	// Size and Seed select a generated sequence instead.
	Values  []int  `json:"values,omitempty"`
	DataSet string `json:"dataset,omitempty"`
	Size    int    `json:"size,omitempty"`
	Seed    int64  `json:"seed,omitempty"`
}

// NewResetCommand creates a reset command with explicit values.
func NewResetCommand(id string, values []int) *Command {
	return &Command{ID: id, Type: CommandTypeReset, Values: values}
}

// NewDataSetResetCommand creates a reset command that generates a data set.
func NewDataSetResetCommand(id, dataSet string, size int, seed int64) *Command {
	return &Command{ID: id, Type: CommandTypeReset, DataSet: dataSet, Size: size, Seed: seed}
}

// NewRunCommand creates a run command.
func NewRunCommand(id string, alg engine.Algorithm) *Command {
	return &Command{ID: id, Type: CommandTypeRun, Algorithm: alg.String()}
}

// NewCancelCommand creates a cancel command.
func NewCancelCommand(id string) *Command {
	return &Command{ID: id, Type: CommandTypeCancel}
}

// Validate checks that the command is well formed.
func (c *Command) Validate() error {
	switch c.Type {
	case CommandTypeReset, CommandTypeCancel:
	case CommandTypeRun:
		if _, err := engine.ParseAlgorithm(c.Algorithm); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
	return nil
}

// AckStatus represents the result of command processing.
type AckStatus string

const (
	AckStatusSuccess AckStatus = "success"
	AckStatusError   AckStatus = "error"
)

// Ack represents an acknowledgment of a command.
type Ack struct {
	// CommandID is the ID of the command being acknowledged.
	CommandID string `json:"command_id"`
	// Status indicates whether the command succeeded or failed.
	Status AckStatus `json:"status"`
	// RunID is set when a run command started a run.
	RunID string `json:"run_id,omitempty"`
	// Error contains the error message if Status is "error".
	Error string `json:"error,omitempty"`
}

// NewSuccessAck creates a success acknowledgment.
func NewSuccessAck(commandID string) *Ack {
	return &Ack{
		CommandID: commandID,
		Status:    AckStatusSuccess,
	}
}

// NewErrorAck creates an error acknowledgment.
func NewErrorAck(commandID string, err error) *Ack {
	return &Ack{
		CommandID: commandID,
		Status:    AckStatusError,
		Error:     err.Error(),
	}
}
