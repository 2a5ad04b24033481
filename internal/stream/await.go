package stream

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamClosed is returned by the Await helpers when the event channel
// closes before a matching event arrives.
var ErrStreamClosed = errors.New("stream closed")

// AwaitEvent consumes events until match returns true for one and returns
// it. Events that do not match are passed to skip when it is non-nil and
// otherwise discarded.
func AwaitEvent(ctx context.Context, events <-chan *Event, match func(*Event) bool, skip func(*Event)) (*Event, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil, ErrStreamClosed
			}
			if match(event) {
				return event, nil
			}
			if skip != nil {
				skip(event)
			}
		}
	}
}

// AwaitAck waits for the acknowledgment of commandID. An error ack is
// returned together with an error carrying its message.
func AwaitAck(ctx context.Context, events <-chan *Event, commandID string, skip func(*Event)) (*Ack, error) {
	var ack *Ack
	_, err := AwaitEvent(ctx, events, func(e *Event) bool {
		if e.Type != MessageTypeAck {
			return false
		}
		a, err := e.AckData()
		if err != nil || a.CommandID != commandID {
			return false
		}
		ack = a
		return true
	}, skip)
	if err != nil {
		return nil, err
	}
	if ack.Status == AckStatusError {
		return ack, fmt.Errorf("command %s failed: %s", commandID, ack.Error)
	}
	return ack, nil
}

// AwaitResult waits for the result of runID. An empty runID matches the
// next result of any run.
func AwaitResult(ctx context.Context, events <-chan *Event, runID string, skip func(*Event)) (*ResultEvent, error) {
	var result *ResultEvent
	_, err := AwaitEvent(ctx, events, func(e *Event) bool {
		if e.Type != MessageTypeResult {
			return false
		}
		r, err := e.ResultData()
		if err != nil || (runID != "" && r.RunID != runID) {
			return false
		}
		result = r
		return true
	}, skip)
	if err != nil {
		return nil, err
	}
	return result, nil
}
