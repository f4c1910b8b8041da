// Package client implements a relay client over a websocket connection.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/ws"

	"github.com/gorilla/websocket"
)

// Event is one frame received from the relay, decoded lazily by the
// caller since each event name carries a different payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// Client is a connected relay participant. Events arrive on the Events
// channel until the connection closes.
type Client struct {
	conn   *websocket.Conn
	log    *slog.Logger
	Events chan Event
}

func Dial(ctx context.Context, serverURL string, log *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to relay at %s: %w", serverURL, err)
	}
	c := &Client{conn: conn, log: log, Events: make(chan Event, 64)}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.Events)
	for {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := c.conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Connection closed", "error", err)
			}
			return
		}
		c.Events <- Event{Name: frame.Event, Data: frame.Data}
	}
}

// Join requests a display name; the relay answers with user_list on
// success or username_taken on collision.
func (c *Client) Join(name string) error {
	return c.emit(ws.EvtUserJoin, name)
}

func (c *Client) SendPublic(body string) error {
	return c.emit(ws.EvtSendMessage, map[string]string{"message": body})
}

func (c *Client) SendPrivate(to, body string) error {
	return c.emit(ws.EvtPrivateMessage, map[string]string{"to": to, "message": body})
}

// SetTyping signals composition state. Callers should debounce: the
// reference client waits one second of silence before sending false.
func (c *Client) SetTyping(typing bool) error {
	return c.emit(ws.EvtTyping, typing)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) emit(event string, data any) error {
	return c.conn.WriteJSON(map[string]any{"event": event, "data": data})
}
