package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient is one websocket connection. Broadcast events arrive on events;
// acks for this client's commands go through send.
type wsClient struct {
	conn   *websocket.Conn
	events <-chan *stream.Event
	send   chan *stream.Event
}

// handleWebsocket handles GET /ws. The client receives a snapshot followed
// by every broadcast event, and may send command events, each answered
// with an ack.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	c := &wsClient{
		conn:   conn,
		events: s.events.Subscribe(ctx, sendBuffer),
		send:   make(chan *stream.Event, sendBuffer),
	}
	// Subscribe before the snapshot so no frame falls between them, and write
	// the snapshot before the pumps start so it is always the first message.
	if err := s.writeSnapshot(c); err != nil {
		s.log.Debug("failed to send snapshot", "error", err)
		cancel()
		conn.Close()
		return
	}

	s.log.Debug("client connected", "remote", conn.RemoteAddr().String(), "clients", s.events.Subscribers())
	go s.writePump(c, cancel)
	go s.readPump(ctx, c, cancel)
}

func (s *Server) writeSnapshot(c *wsClient) error {
	data, err := stream.MustNewEvent(stream.MessageTypeSnapshot, stream.NewSnapshotEvent(s.engine.Snapshot())).Marshal()
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) readPump(ctx context.Context, c *wsClient, cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("client read failed", "error", err)
			}
			return
		}

		event, err := stream.UnmarshalEvent(data)
		if err != nil {
			s.log.Warn("bad client message", "error", err)
			continue
		}
		cmd, err := event.CommandData()
		if err != nil {
			s.log.Warn("bad client command", "error", err)
			continue
		}

		ack := s.handleCommand(cmd)
		select {
		case c.send <- stream.MustNewEvent(stream.MessageTypeAck, ack):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writePump(c *wsClient, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.conn.Close()
	}()

	for {
		var event *stream.Event
		select {
		case e, ok := <-c.events:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			event = e
		case event = <-c.send:
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		data, err := event.Marshal()
		if err != nil {
			s.log.Warn("failed to marshal event", "type", event.Type, "error", err)
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// handleCommand applies a client command and returns its acknowledgment.
func (s *Server) handleCommand(cmd *stream.Command) *stream.Ack {
	if err := cmd.Validate(); err != nil {
		return stream.NewErrorAck(cmd.ID, err)
	}

	switch cmd.Type {
	case stream.CommandTypeReset:
		if err := s.reset(cmd.Values, cmd.DataSet, cmd.Size, cmd.Seed); err != nil {
			return stream.NewErrorAck(cmd.ID, err)
		}
	case stream.CommandTypeRun:
		alg, _ := engine.ParseAlgorithm(cmd.Algorithm)
		h, err := s.startRun(alg)
		if err != nil {
			return stream.NewErrorAck(cmd.ID, err)
		}
		ack := stream.NewSuccessAck(cmd.ID)
		ack.RunID = h.ID()
		return ack
	case stream.CommandTypeCancel:
		if id := s.cancelRun(); id != "" {
			ack := stream.NewSuccessAck(cmd.ID)
			ack.RunID = id
			return ack
		}
	}
	return stream.NewSuccessAck(cmd.ID)
}
