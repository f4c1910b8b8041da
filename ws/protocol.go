// Package ws adapts the relay core to gorilla/websocket connections.
// Frames are JSON envelopes {"event": ..., "data": ...} keeping the wire
// names of the socket.io chat protocol.
package ws

import "encoding/json"

// Inbound wire event names, shared with the client package so the two
// ends cannot drift apart.
const (
	EvtUserJoin       = "user_join"
	EvtSendMessage    = "send_message"
	EvtPrivateMessage = "private_message"
	EvtTyping         = "typing"
)

// Frame is one websocket message in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	Message string `json:"message"`
}

type privateMessagePayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}
