package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live websocket connection. It implements
// contract.EventSink: Consume queues an outbound frame without blocking
// the broadcaster past its context.
type Client struct {
	id        string
	conn      *websocket.Conn
	lifecycle contract.ILifecycle
	send      chan []byte
	log       *slog.Logger
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, lifecycle contract.ILifecycle, log *slog.Logger, sendBuffer int) *Client {
	return &Client{
		id:        uuid.NewString(),
		conn:      conn,
		lifecycle: lifecycle,
		send:      make(chan []byte, sendBuffer),
		log:       log,
	}
}

// ID is the connection id the transport assigned to this client.
func (c *Client) ID() string { return c.id }

// Consume implements contract.EventSink. A full send buffer or an expired
// context drops this recipient's copy; the broadcast moves on.
func (c *Client) Consume(ctx context.Context, e event.DomainEvent) error {
	frame, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: e.Name(), Data: e.Payload()})
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run services the connection until the peer goes away or ctx is
// canceled, then triggers the disconnect protocol.
func (c *Client) Run(ctx context.Context) {
	c.lifecycle.Connect(c.id)
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.lifecycle.HandleDisconnect(ctx, c.id)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Websocket read ended", "conn", c.id, "error", err)
			}
			return
		}
		c.dispatch(ctx, raw)
	}
}

// dispatch decodes one inbound frame into a core command. Malformed or
// unknown frames are dropped, never fatal: the peer may speak a newer
// protocol revision.
func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Debug("Invalid frame", "conn", c.id, "error", err)
		return
	}
	switch frame.Event {
	case EvtUserJoin:
		var name string
		if err := json.Unmarshal(frame.Data, &name); err != nil {
			return
		}
		c.lifecycle.HandleJoin(ctx, domain.JoinCommand{ConnectionID: c.id, DisplayName: name}, c)
	case EvtSendMessage:
		var payload sendMessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		c.lifecycle.HandleSendPublic(ctx, domain.PublicMessageCommand{
			ConnectionID: c.id,
			Body:         payload.Message,
		})
	case EvtPrivateMessage:
		var payload privateMessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		c.lifecycle.HandleSendPrivate(ctx, domain.PrivateMessageCommand{
			ConnectionID:       c.id,
			TargetConnectionID: payload.To,
			Body:               payload.Message,
		})
	case EvtTyping:
		var typing bool
		if err := json.Unmarshal(frame.Data, &typing); err != nil {
			return
		}
		c.lifecycle.HandleTyping(ctx, domain.TypingCommand{ConnectionID: c.id, Typing: typing})
	default:
		c.log.Debug("Unknown event", "conn", c.id, "event", frame.Event)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
