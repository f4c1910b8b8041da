// Package domain contains core concepts of the chat relay.
// This file defines Identity entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Identity is one currently connected participant. At most one Identity
// exists per connection, and at most one per display name among the
// identities currently connected.
type Identity struct {
	ConnectionID string    `json:"id"`
	DisplayName  string    `json:"username"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// IdentityRecord is the durable view of a participant kept by the
// persistence gateway across connections.
type IdentityRecord struct {
	DisplayName  string    `json:"username"`
	ConnectionID string    `json:"socketId"`
	Online       bool      `json:"isOnline"`
	LastSeen     time.Time `json:"lastSeen"`
}
