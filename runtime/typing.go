package runtime

import (
	"sync"

	"chat-relay/domain"

	"github.com/samber/lo"
)

// TypingTracker holds the ephemeral set of identities currently composing
// a message. It has no timeout logic: the transport edge decides when to
// signal typing=false (the reference client debounces at one second).
type TypingTracker struct {
	mu    sync.Mutex
	marks []domain.TypingMark
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{}
}

// SetTyping records or removes a mark and returns the names currently
// typing, in the order the marks were set. Both directions are idempotent.
func (t *TypingTracker) SetTyping(connID, name string, typing bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(connID)
	switch {
	case typing && idx < 0:
		t.marks = append(t.marks, domain.TypingMark{ConnectionID: connID, DisplayName: name})
	case !typing && idx >= 0:
		t.marks = append(t.marks[:idx], t.marks[idx+1:]...)
	}
	return t.namesLocked()
}

// Clear removes any mark for the connection, silent if absent. Called on
// disconnect.
func (t *TypingTracker) Clear(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx := t.indexLocked(connID); idx >= 0 {
		t.marks = append(t.marks[:idx], t.marks[idx+1:]...)
	}
	return t.namesLocked()
}

func (t *TypingTracker) indexLocked(connID string) int {
	for i, m := range t.marks {
		if m.ConnectionID == connID {
			return i
		}
	}
	return -1
}

func (t *TypingTracker) namesLocked() []string {
	return lo.Map(t.marks, func(m domain.TypingMark, _ int) string {
		return m.DisplayName
	})
}
