package repositories

import (
	"context"

	"chat-relay/domain"
)

// MemoryGateway is the strategy selected when no durable store is
// available. Writes are accepted and discarded, history is empty: clients
// fall back to the live registry roster and real-time delivery only.
type MemoryGateway struct{}

func NewMemoryGateway() MemoryGateway {
	return MemoryGateway{}
}

func (MemoryGateway) UpsertIdentity(context.Context, string, string, bool) error {
	return nil
}

// AppendMessage assigns no id; the router keeps the provisional one.
func (MemoryGateway) AppendMessage(context.Context, domain.ChatMessage) (string, error) {
	return "", nil
}

func (MemoryGateway) ListMessages(context.Context, domain.Scope, int, int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (MemoryGateway) ListPrivateMessages(context.Context, string, int, int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (MemoryGateway) ListOnlineIdentities(context.Context) ([]domain.IdentityRecord, error) {
	return nil, nil
}
