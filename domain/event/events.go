// Package event defines the outbound events the relay broadcasts to
// connected clients. Wire names stay compatible with the socket.io chat
// protocol so existing clients keep working.
package event

import "chat-relay/domain"

// Outbound wire event names, shared by the relay and its clients so the
// two ends cannot drift apart.
const (
	NameRosterUpdated     = "user_list"
	NameParticipantJoined = "user_joined"
	NameParticipantLeft   = "user_left"
	NamePublicMessage     = "receive_message"
	NamePrivateMessage    = "private_message"
	NameTypingUpdated     = "typing_users"
	NameJoinRejected      = "username_taken"
	NameErrorNotice       = "error"
)

// DomainEvent is anything the relay can emit to a connected client.
// Name is the wire event name, Payload the JSON body of the frame.
type DomainEvent interface {
	Name() string
	Payload() any
}

// RosterUpdated carries the full ordered roster after a join or leave.
type RosterUpdated struct {
	Roster []domain.Identity
}

func (RosterUpdated) Name() string   { return NameRosterUpdated }
func (e RosterUpdated) Payload() any { return e.Roster }

type ParticipantJoined struct {
	ConnectionID string `json:"id"`
	DisplayName  string `json:"username"`
}

func (ParticipantJoined) Name() string   { return NameParticipantJoined }
func (e ParticipantJoined) Payload() any { return e }

type ParticipantLeft struct {
	ConnectionID string `json:"id"`
	DisplayName  string `json:"username"`
}

func (ParticipantLeft) Name() string   { return NameParticipantLeft }
func (e ParticipantLeft) Payload() any { return e }

type MessageReceived struct {
	Message domain.ChatMessage
}

// Name routes private messages to their own wire channel; public ones go
// out as receive_message.
func (e MessageReceived) Name() string {
	if e.Message.Scope == domain.ScopePrivate {
		return NamePrivateMessage
	}
	return NamePublicMessage
}
func (e MessageReceived) Payload() any { return e.Message }

// TypingUpdated carries the full typing set after every change.
type TypingUpdated struct {
	Names []string
}

func (TypingUpdated) Name() string   { return NameTypingUpdated }
func (e TypingUpdated) Payload() any { return e.Names }

// JoinRejected goes to the requester only.
type JoinRejected struct {
	Reason string `json:"message"`
}

func (JoinRejected) Name() string   { return NameJoinRejected }
func (e JoinRejected) Payload() any { return e }

// ErrorNotice goes to the sender of a rejected message only.
type ErrorNotice struct {
	Reason string `json:"message"`
}

func (ErrorNotice) Name() string   { return NameErrorNotice }
func (e ErrorNotice) Payload() any { return e }
