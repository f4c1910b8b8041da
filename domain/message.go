// Package domain contains core concepts of the chat relay.
// This file defines ChatMessage and its scope rules.
// Messages are immutable once created.
package domain

import "time"

// Scope says whether a message goes to everyone or to one recipient.
type Scope string

const (
	ScopePublic  Scope = "public"
	ScopePrivate Scope = "private"
)

// ChatMessage represents one immutable unit of conversation.
// RecipientConnectionID is set iff Scope is ScopePrivate.
type ChatMessage struct {
	ID                    string    `json:"id"`
	SenderName            string    `json:"sender"`
	SenderConnectionID    string    `json:"senderId"`
	Body                  string    `json:"message"`
	Scope                 Scope     `json:"scope"`
	RecipientConnectionID string    `json:"recipientId,omitempty"`
	CreatedAt             time.Time `json:"timestamp"`
}
