package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/logging"
)

// DefaultSubscriberBuffer is the channel capacity used when Subscribe is
// given a non-positive buffer.
const DefaultSubscriberBuffer = 256

// DefaultPublishTimeout bounds each call to a Publisher.
const DefaultPublishTimeout = 2 * time.Second

// Publisher forwards events outside the process.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Broadcaster fans events out to in-process subscribers and publishers.
// It implements engine.Observer: every frame becomes a frame event and the
// terminal frame is followed by a result event.
//
// Sends to subscribers never block. A subscriber whose buffer is full misses
// the event and the miss is counted by Dropped. Publishers are called
// synchronously, so a slow publisher slows the run that feeds it.
type Broadcaster struct {
	mu         sync.Mutex
	nextSeq    uint64
	subs       map[*subscriber]struct{}
	publishers []Publisher
	closed     bool

	dropped atomic.Uint64
	timeout time.Duration
	log     *logging.Logger
}

type subscriber struct {
	ch chan *Event
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithPublisher adds a publisher that receives every event.
func WithPublisher(p Publisher) BroadcasterOption {
	return func(b *Broadcaster) {
		b.publishers = append(b.publishers, p)
	}
}

// WithLogger sets the logger used for publisher failures.
func WithLogger(l *logging.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		b.log = l
	}
}

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) {
		b.timeout = d
	}
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		nextSeq: 1,
		subs:    make(map[*subscriber]struct{}),
		timeout: DefaultPublishTimeout,
		log:     logging.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", "broadcaster")
	return b
}

// Observe implements engine.Observer.
func (b *Broadcaster) Observe(f engine.Frame) {
	b.Broadcast(MustNewEvent(MessageTypeFrame, NewFrameEvent(f)))
	if f.Status.Terminal() {
		b.Broadcast(MustNewEvent(MessageTypeResult, NewResultEvent(resultFromFrame(f))))
	}
}

// Broadcast assigns the next sequence number to event and delivers it.
// Events broadcast after Close are discarded.
func (b *Broadcaster) Broadcast(event *Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	event.Seq = b.nextSeq
	b.nextSeq++

	for s := range b.subs {
		select {
		case s.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	publishers := b.publishers
	b.mu.Unlock()

	for _, p := range publishers {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := p.Publish(ctx, event); err != nil {
			b.log.Warn("publish failed", "seq", event.Seq, "type", event.Type, "error", err)
		}
		cancel()
	}
}

// Subscribe returns a channel receiving every event broadcast from now on.
// The channel is closed when ctx is done or the Broadcaster is closed.
func (b *Broadcaster) Subscribe(ctx context.Context, buffer int) <-chan *Event {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	s := &subscriber{ch: make(chan *Event, buffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(s)
	}()

	return s.ch
}

func (b *Broadcaster) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// LastSeq returns the sequence number of the last event broadcast,
// or 0 if none has been.
func (b *Broadcaster) LastSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextSeq - 1
}

// Close closes every subscription. It is safe to call Close multiple times.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}
