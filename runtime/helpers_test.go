package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/logs"
	"chat-relay/observability"
)

// recordSink collects every event it receives, in order.
type recordSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordSink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func (s *recordSink) messages() []domain.ChatMessage {
	var messages []domain.ChatMessage
	for _, e := range s.all() {
		if evt, ok := e.(event.MessageReceived); ok {
			messages = append(messages, evt.Message)
		}
	}
	return messages
}

func (s *recordSink) lastRoster() []domain.Identity {
	var roster []domain.Identity
	for _, e := range s.all() {
		if evt, ok := e.(event.RosterUpdated); ok {
			roster = evt.Roster
		}
	}
	return roster
}

func (s *recordSink) lastTyping() []string {
	names := []string{}
	for _, e := range s.all() {
		if evt, ok := e.(event.TypingUpdated); ok {
			names = evt.Names
		}
	}
	return names
}

func (s *recordSink) count(name string) int {
	n := 0
	for _, e := range s.all() {
		if e.Name() == name {
			n++
		}
	}
	return n
}

// failSink simulates a connection already torn down.
type failSink struct{}

func (failSink) Consume(context.Context, event.DomainEvent) error {
	return fmt.Errorf("connection torn down")
}

// fakeGateway records writes and can be told to fail or assign ids.
type fakeGateway struct {
	mu       sync.Mutex
	appended []domain.ChatMessage
	upserts  []domain.IdentityRecord
	assignID string
	failAll  bool
}

func (g *fakeGateway) UpsertIdentity(_ context.Context, name, connID string, online bool) error {
	if g.failAll {
		return fmt.Errorf("gateway down")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upserts = append(g.upserts, domain.IdentityRecord{
		DisplayName:  name,
		ConnectionID: connID,
		Online:       online,
	})
	return nil
}

func (g *fakeGateway) AppendMessage(_ context.Context, msg domain.ChatMessage) (string, error) {
	if g.failAll {
		return "", fmt.Errorf("gateway down")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appended = append(g.appended, msg)
	return g.assignID, nil
}

func (g *fakeGateway) ListMessages(context.Context, domain.Scope, int, int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (g *fakeGateway) ListPrivateMessages(context.Context, string, int, int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (g *fakeGateway) ListOnlineIdentities(context.Context) ([]domain.IdentityRecord, error) {
	return nil, nil
}

func (g *fakeGateway) appendedMessages() []domain.ChatMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.ChatMessage(nil), g.appended...)
}

func (g *fakeGateway) upsertRecords() []domain.IdentityRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.IdentityRecord(nil), g.upserts...)
}

// newTestCore wires a full relay core around a fake gateway.
func newTestCore(gateway *fakeGateway) (*Registry, *TypingTracker, *Router, *Lifecycle) {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	monitoring := observability.NewMonitoring()
	registry := NewRegistry()
	typing := NewTypingTracker()
	router := NewRouter(registry, gateway, log, monitoring, 100*time.Millisecond, 100*time.Millisecond)
	lifecycle := NewLifecycle(registry, typing, router, gateway, log, monitoring, 100*time.Millisecond)
	return registry, typing, router, lifecycle
}
