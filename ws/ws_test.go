package ws_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/logs"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/ws"

	"github.com/stretchr/testify/require"
)

// newRelayServer boots a full relay on a memory gateway behind an
// httptest server and returns the websocket URL.
func newRelayServer(t *testing.T) string {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	monitoring := observability.NewMonitoring()
	gateway := repositories.NewMemoryGateway()

	registry := runtime.NewRegistry()
	typing := runtime.NewTypingTracker()
	router := runtime.NewRouter(registry, gateway, log, monitoring,
		100*time.Millisecond, 100*time.Millisecond)
	lifecycle := runtime.NewLifecycle(registry, typing, router, gateway,
		log, monitoring, 100*time.Millisecond)

	server := httptest.NewServer(ws.NewHandler(lifecycle, log, []string{"*"}, 32))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url, name string) *client.Client {
	t.Helper()
	c, err := client.Dial(context.Background(), url, logs.GetLoggerFromLevel(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Join(name))
	return c
}

// awaitEvent drains the client's event stream until the named event
// arrives. Unrelated events in between are skipped.
func awaitEvent(t *testing.T, c *client.Client, name string) client.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt, ok := <-c.Events:
			if !ok {
				t.Fatalf("connection closed while waiting for %q", name)
			}
			if evt.Name == name {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", name)
		}
	}
}

type rosterEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func decodeRoster(t *testing.T, evt client.Event) []rosterEntry {
	t.Helper()
	var roster []rosterEntry
	require.NoError(t, json.Unmarshal(evt.Data, &roster))
	return roster
}

func TestRelay_Join_Broadcasts_Roster(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	roster := decodeRoster(t, awaitEvent(t, alice, "user_list"))
	req.Len(roster, 1)
	req.Equal("alice", roster[0].Username)

	// Alice's own arrival is echoed back to her too
	awaitEvent(t, alice, "user_joined")

	_ = dial(t, url, "bob")

	// Alice hears the grown roster first, then bob's arrival
	roster = decodeRoster(t, awaitEvent(t, alice, "user_list"))
	req.Len(roster, 2)

	joined := awaitEvent(t, alice, "user_joined")
	var who rosterEntry
	req.NoError(json.Unmarshal(joined.Data, &who))
	req.Equal("bob", who.Username)
}

func TestRelay_Duplicate_Name_Rejected(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	awaitEvent(t, alice, "user_list")

	intruder := dial(t, url, "alice")
	rejected := awaitEvent(t, intruder, "username_taken")

	var notice struct {
		Message string `json:"message"`
	}
	req.NoError(json.Unmarshal(rejected.Data, &notice))
	req.Contains(notice.Message, "taken")
}

func TestRelay_Public_Message_Reaches_Everyone(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	awaitEvent(t, alice, "user_list")
	awaitEvent(t, bob, "user_list")

	req.NoError(alice.SendPublic("hi everyone"))

	for _, c := range []*client.Client{alice, bob} {
		var msg domain.ChatMessage
		evt := awaitEvent(t, c, "receive_message")
		req.NoError(json.Unmarshal(evt.Data, &msg))
		req.Equal("hi everyone", msg.Body)
		req.Equal("alice", msg.SenderName)
		req.Equal(domain.ScopePublic, msg.Scope)
	}
}

func TestRelay_Private_Message_Skips_Third_Parties(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	carol := dial(t, url, "carol")
	awaitEvent(t, bob, "user_list")
	awaitEvent(t, carol, "user_list")

	// Alice learns bob's connection id from the roster
	var bobID string
	for _, entry := range decodeRoster(t, awaitEvent(t, alice, "user_list")) {
		if entry.Username == "bob" {
			bobID = entry.ID
		}
	}
	// The roster alice got may predate bob; wait for the grown one
	for bobID == "" {
		for _, entry := range decodeRoster(t, awaitEvent(t, alice, "user_list")) {
			if entry.Username == "bob" {
				bobID = entry.ID
			}
		}
	}

	req.NoError(alice.SendPrivate(bobID, "psst"))

	// Bob and alice each receive the whisper
	for _, c := range []*client.Client{bob, alice} {
		var msg domain.ChatMessage
		evt := awaitEvent(t, c, "private_message")
		req.NoError(json.Unmarshal(evt.Data, &msg))
		req.Equal("psst", msg.Body)
		req.Equal(domain.ScopePrivate, msg.Scope)
	}

	// Carol sees nothing beyond roster traffic
	select {
	case evt, ok := <-carol.Events:
		if ok {
			req.NotEqual("private_message", evt.Name)
			req.NotEqual("receive_message", evt.Name)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelay_Typing_Broadcast(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	awaitEvent(t, alice, "user_list")
	awaitEvent(t, bob, "user_list")

	req.NoError(alice.SetTyping(true))

	evt := awaitEvent(t, bob, "typing_users")
	var names []string
	req.NoError(json.Unmarshal(evt.Data, &names))
	req.Equal([]string{"alice"}, names)
}

func TestRelay_Disconnect_Announced_To_Survivors(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	awaitEvent(t, alice, "user_list")
	awaitEvent(t, bob, "user_list")

	req.NoError(bob.Close())

	left := awaitEvent(t, alice, "user_left")
	var who rosterEntry
	req.NoError(json.Unmarshal(left.Data, &who))
	req.Equal("bob", who.Username)

	roster := decodeRoster(t, awaitEvent(t, alice, "user_list"))
	req.Len(roster, 1)
	req.Equal("alice", roster[0].Username)
}

func TestRelay_Empty_Message_Gets_Error_Notice(t *testing.T) {
	req := require.New(t)
	url := newRelayServer(t)

	alice := dial(t, url, "alice")
	awaitEvent(t, alice, "user_list")

	req.NoError(alice.SendPublic("   "))

	evt := awaitEvent(t, alice, "error")
	var notice struct {
		Message string `json:"message"`
	}
	req.NoError(json.Unmarshal(evt.Data, &notice))
	req.NotEmpty(notice.Message)
}
