package runtime

import (
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Join_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	sink := &recordSink{}

	// Given no one is connected
	req.Empty(registry.Snapshot())

	// When a participant joins
	identity, roster, err := registry.Join(connID, "alice", sink)

	// Then the roster holds exactly that identity
	req.NoError(err)
	req.Equal("alice", identity.DisplayName)
	req.Equal(connID, identity.ConnectionID)
	req.False(identity.JoinedAt.IsZero())
	req.Len(roster, 1)
	req.Equal(identity, roster[0])
}

func TestRegistry_Join_Name_Taken(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := uuid.NewString()
	second := uuid.NewString()

	// Given alice is connected
	existing, _, err := registry.Join(first, "alice", &recordSink{})
	req.NoError(err)

	// When a different connection requests the same name
	_, _, err = registry.Join(second, "alice", &recordSink{})

	// Then the join is rejected and the existing identity is unaffected
	req.ErrorIs(err, errors.ErrNameTaken)
	found, err := registry.Find(first)
	req.NoError(err)
	req.Equal(existing, found)
	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_Rejoin_Same_Connection_Is_Refresh(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()

	// Given a joined participant
	identity, _, err := registry.Join(connID, "alice", &recordSink{})
	req.NoError(err)

	// When the same connection retries the handshake with the same name
	refreshed, roster, err := registry.Join(connID, "alice", &recordSink{})

	// Then there is no collision and the roster is unchanged
	req.NoError(err)
	req.Equal(identity, refreshed)
	req.Len(roster, 1)
}

func TestRegistry_Leave_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	_, _, err := registry.Join(connID, "alice", &recordSink{})
	req.NoError(err)

	// When the participant leaves
	identity, roster, err := registry.Leave(connID)

	// Then the departure is reported with the removed identity
	req.NoError(err)
	req.Equal("alice", identity.DisplayName)
	req.Empty(roster)

	// And the second leave signals not-found without changing the roster
	_, roster, err = registry.Leave(connID)
	req.ErrorIs(err, errors.ErrNotFound)
	req.Empty(roster)
}

func TestRegistry_Name_Reusable_After_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := uuid.NewString()
	second := uuid.NewString()

	_, _, err := registry.Join(first, "alice", &recordSink{})
	req.NoError(err)
	_, _, err = registry.Leave(first)
	req.NoError(err)

	// When a new connection takes the freed name
	_, roster, err := registry.Join(second, "alice", &recordSink{})

	// Then the join succeeds
	req.NoError(err)
	req.Len(roster, 1)
	req.Equal(second, roster[0].ConnectionID)
}

func TestRegistry_Snapshot_Keeps_Insertion_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	for _, name := range []string{"alice", "bob", "carol"} {
		_, _, err := registry.Join(uuid.NewString(), name, &recordSink{})
		req.NoError(err)
	}

	names := lo.Map(registry.Snapshot(), func(id domain.Identity, _ int) string {
		return id.DisplayName
	})
	req.Equal([]string{"alice", "bob", "carol"}, names)
}

func TestRegistry_Fanout_Pairs_Roster_And_Sinks(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sinkA := &recordSink{}
	sinkB := &recordSink{}

	_, _, err := registry.Join(uuid.NewString(), "alice", sinkA)
	req.NoError(err)
	_, _, err = registry.Join(uuid.NewString(), "bob", sinkB)
	req.NoError(err)

	roster, sinks := registry.Fanout()
	req.Len(roster, 2)
	req.Len(sinks, 2)
	req.Equal("alice", roster[0].DisplayName)
	req.Equal("bob", roster[1].DisplayName)
}
