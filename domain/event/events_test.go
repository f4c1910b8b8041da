package event

import (
	"encoding/json"
	"testing"

	"chat-relay/domain"

	"github.com/stretchr/testify/require"
)

func TestWireEventNames_Are_Stable(t *testing.T) {
	req := require.New(t)

	// The constants are the wire contract; renaming one breaks every
	// deployed client.
	req.Equal("user_list", RosterUpdated{}.Name())
	req.Equal("user_joined", ParticipantJoined{}.Name())
	req.Equal("user_left", ParticipantLeft{}.Name())
	req.Equal("typing_users", TypingUpdated{}.Name())
	req.Equal("username_taken", JoinRejected{}.Name())
	req.Equal("error", ErrorNotice{}.Name())
	req.Equal(NameRosterUpdated, RosterUpdated{}.Name())
	req.Equal(NamePublicMessage, MessageReceived{}.Name())
}

func TestMessageReceived_Name_Depends_On_Scope(t *testing.T) {
	req := require.New(t)

	public := MessageReceived{Message: domain.ChatMessage{Scope: domain.ScopePublic}}
	req.Equal("receive_message", public.Name())

	private := MessageReceived{Message: domain.ChatMessage{Scope: domain.ScopePrivate}}
	req.Equal("private_message", private.Name())
}

func TestJoinRejected_Wire_Shape(t *testing.T) {
	req := require.New(t)

	data, err := json.Marshal(JoinRejected{Reason: "Username is already taken"}.Payload())
	req.NoError(err)
	req.JSONEq(`{"message":"Username is already taken"}`, string(data))
}

func TestParticipantJoined_Wire_Shape(t *testing.T) {
	req := require.New(t)

	data, err := json.Marshal(ParticipantJoined{ConnectionID: "c1", DisplayName: "alice"}.Payload())
	req.NoError(err)
	req.JSONEq(`{"id":"c1","username":"alice"}`, string(data))
}
