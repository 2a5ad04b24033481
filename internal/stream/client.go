package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a websocket connection to a `sortvis serve` instance. It
// receives every event the server broadcasts and sends commands.
type Client struct {
	conn   *websocket.Conn
	events chan *Event

	writeMu sync.Mutex

	mu     sync.Mutex
	err    error
	closed bool
	done   chan struct{}
}

// Dial connects to the websocket endpoint at url. A base URL such as
// "http://localhost:8374" is rewritten to "ws://localhost:8374/ws".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, WebsocketURL(url), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: server returned status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan *Event, DefaultSubscriberBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// WebsocketURL normalises a server address into its websocket endpoint.
func WebsocketURL(url string) string {
	switch {
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://"):
		url = "ws://" + url
	}
	if !strings.HasSuffix(url, "/ws") {
		url = strings.TrimSuffix(url, "/") + "/ws"
	}
	return url
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if !c.closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.err = err
			}
			c.mu.Unlock()
			return
		}
		event, err := UnmarshalEvent(data)
		if err != nil {
			// Skip malformed events but continue
			continue
		}
		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}

// Events returns the channel of received events. It is closed when the
// connection ends; Err then reports why.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// Err returns the read error that ended the connection, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Send writes cmd as a command event. The write honours ctx's deadline.
func (c *Client) Send(ctx context.Context, cmd *Command) error {
	event, err := NewEvent(MessageTypeCommand, cmd)
	if err != nil {
		return fmt.Errorf("failed to create command event: %w", err)
	}
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// Close sends a close frame and closes the connection. It is safe to call
// Close multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return c.conn.Close()
}
