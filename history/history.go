// Package history keeps the rolling in-memory record of user/assistant
// turns. It is owned by one pipeline instance for its lifetime and is never
// persisted across process restarts.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sweetpotato0/tripmate/message"
)

// Turn is one completed question/answer exchange.
type Turn struct {
	User      string
	Assistant string
}

// History is a bounded FIFO of conversation turns. Appending past the bound
// evicts the oldest turn.
type History struct {
	mu       sync.Mutex
	maxTurns int
	turns    []Turn
}

// New creates a history bounded to maxTurns (default 5 when non-positive).
func New(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &History{maxTurns: maxTurns}
}

// AddTurn appends the just-answered turn, evicting the oldest past the bound.
func (h *History) AddTurn(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{User: user, Assistant: assistant})
	if len(h.turns) > h.maxTurns {
		h.turns = h.turns[len(h.turns)-h.maxTurns:]
	}
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Turns returns a copy of the stored turns, oldest first.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Messages renders the stored turns as user/assistant message pairs.
func (h *History) Messages() []*message.Message {
	turns := h.Turns()
	msgs := make([]*message.Message, 0, len(turns)*2)
	for _, turn := range turns {
		msgs = append(msgs, message.NewMessage(message.RoleUser, turn.User))
		msgs = append(msgs, message.NewMessage(message.RoleAssistant, turn.Assistant))
	}
	return msgs
}

// Render returns the turns as plain text for embedding in a prompt.
func (h *History) Render() string {
	turns := h.Turns()
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.User, turn.Assistant)
	}
	return strings.TrimSpace(b.String())
}
