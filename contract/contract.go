package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one delivery target for outbound events, usually a live
// websocket connection. Consume must not block past ctx.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry owns the connected identities. Mutations return the roster
// snapshot taken under the same lock, so callers broadcast exactly the
// state their mutation produced.
type IRegistry interface {
	Join(connID, name string, sink EventSink) (domain.Identity, []domain.Identity, error)
	Leave(connID string) (domain.Identity, []domain.Identity, error)
	Find(connID string) (domain.Identity, error)
	Snapshot() []domain.Identity
	Sinks(connIDs ...string) []EventSink
	Fanout() ([]domain.Identity, []EventSink)
}

type ITypingTracker interface {
	SetTyping(connID, name string, typing bool) []string
	Clear(connID string) []string
}

type IRouter interface {
	PublishPublic(ctx context.Context, senderConnID, body string) (domain.ChatMessage, []EventSink, error)
	PublishPrivate(ctx context.Context, senderConnID, targetConnID, body string) (domain.ChatMessage, []EventSink, error)
	Deliver(ctx context.Context, e event.DomainEvent, sinks []EventSink)
}

// ILifecycle is the per-connection state machine the transport drives.
type ILifecycle interface {
	Connect(connID string)
	HandleJoin(ctx context.Context, cmd domain.JoinCommand, sink EventSink)
	HandleSendPublic(ctx context.Context, cmd domain.PublicMessageCommand)
	HandleSendPrivate(ctx context.Context, cmd domain.PrivateMessageCommand)
	HandleTyping(ctx context.Context, cmd domain.TypingCommand)
	HandleDisconnect(ctx context.Context, connID string)
}

// Gateway is the persistence collaborator. Every call is best-effort:
// the relay must behave correctly when every call fails or the gateway
// is entirely absent.
type Gateway interface {
	UpsertIdentity(ctx context.Context, name, connID string, online bool) error
	AppendMessage(ctx context.Context, msg domain.ChatMessage) (assignedID string, err error)
	ListMessages(ctx context.Context, scope domain.Scope, page, pageSize int) ([]domain.ChatMessage, error)
	ListPrivateMessages(ctx context.Context, connID string, page, pageSize int) ([]domain.ChatMessage, error)
	ListOnlineIdentities(ctx context.Context) ([]domain.IdentityRecord, error)
}
