package domain

// TypingMark is the ephemeral fact that a participant is composing a
// message. It exists only between a typing=true signal and the matching
// typing=false or disconnect.
type TypingMark struct {
	ConnectionID string
	DisplayName  string
}
