// Package projection builds local timelines from observed events.
// Handles ordering; it does not emit events or touch the transport.
package projection

import (
	"context"
	"sort"
	"sync"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Timeline accumulates the messages one client has seen, kept in
// CreatedAt order even when deliveries arrive out of order.
type Timeline struct {
	mu       sync.Mutex
	Owner    string
	messages []domain.ChatMessage
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{Owner: owner}
}

// Consume implements contract.EventSink for message events; everything
// else is ignored.
func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageReceived)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, evt.Message)
	sort.SliceStable(t.messages, func(i, j int) bool {
		return t.messages[i].CreatedAt.Before(t.messages[j].CreatedAt)
	})
	return nil
}

// Messages returns a copy of the timeline in chronological order.
func (t *Timeline) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ChatMessage(nil), t.messages...)
}
