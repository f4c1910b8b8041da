// Package runtime hosts the relay core: the identity registry, the typing
// tracker, the message router and the per-connection lifecycle.
// It orchestrates the system without transport or storage concerns.
package runtime

import (
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

// Registry owns the set of connected identities. All mutations go through
// one mutex so the name-uniqueness check and the insert are atomic, and
// every roster snapshot handed out for broadcast reflects exactly the
// mutation that triggered it.
type Registry struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity    // connID -> identity
	sinks      map[string]contract.EventSink // connID -> live connection
	names      map[string]string             // display name -> connID
	order      []string                      // connIDs in insertion order
	clock      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		identities: make(map[string]domain.Identity),
		sinks:      make(map[string]contract.EventSink),
		names:      make(map[string]string),
		clock:      time.Now,
	}
}

// Join registers a connection under a display name. Joining again with the
// same connection and the same name is a refresh, not a collision: clients
// retry the handshake. The returned roster is the snapshot to broadcast.
func (r *Registry) Join(connID, name string, sink contract.EventSink) (domain.Identity, []domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, taken := r.names[name]; taken && holder != connID {
		return domain.Identity{}, nil, errors.ErrNameTaken
	}

	if existing, ok := r.identities[connID]; ok {
		if existing.DisplayName == name {
			// Handshake retry: refresh the sink, keep JoinedAt.
			r.sinks[connID] = sink
			return existing, r.snapshotLocked(), nil
		}
		// Same connection under a new name releases the old one.
		delete(r.names, existing.DisplayName)
		identity := domain.Identity{ConnectionID: connID, DisplayName: name, JoinedAt: existing.JoinedAt}
		r.identities[connID] = identity
		r.names[name] = connID
		r.sinks[connID] = sink
		return identity, r.snapshotLocked(), nil
	}

	identity := domain.Identity{ConnectionID: connID, DisplayName: name, JoinedAt: r.clock().UTC()}
	r.identities[connID] = identity
	r.names[name] = connID
	r.sinks[connID] = sink
	r.order = append(r.order, connID)
	return identity, r.snapshotLocked(), nil
}

// Leave removes the identity and returns it so callers can announce the
// departure. A second call for the same connection reports ErrNotFound and
// leaves the roster untouched.
func (r *Registry) Leave(connID string) (domain.Identity, []domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, r.snapshotLocked(), errors.ErrNotFound
	}
	delete(r.identities, connID)
	delete(r.sinks, connID)
	delete(r.names, identity.DisplayName)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return identity, r.snapshotLocked(), nil
}

func (r *Registry) Find(connID string) (domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[connID]
	if !ok {
		return domain.Identity{}, errors.ErrNotFound
	}
	return identity, nil
}

// Snapshot returns the roster in insertion order.
func (r *Registry) Snapshot() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Sinks resolves live connections for specific ids. Unknown ids are simply
// offline and are skipped, not errors.
func (r *Registry) Sinks(connIDs ...string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sinks []contract.EventSink
	for _, id := range connIDs {
		if sink, ok := r.sinks[id]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Fanout returns the roster and every live sink in one locked read, so a
// broadcast never pairs a fresh roster with a stale recipient set.
func (r *Registry) Fanout() ([]domain.Identity, []contract.EventSink) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.EventSink, 0, len(r.order))
	for _, id := range r.order {
		if sink, ok := r.sinks[id]; ok {
			sinks = append(sinks, sink)
		}
	}
	return r.snapshotLocked(), sinks
}

func (r *Registry) snapshotLocked() []domain.Identity {
	roster := make([]domain.Identity, 0, len(r.order))
	for _, id := range r.order {
		roster = append(roster, r.identities[id])
	}
	return roster
}
