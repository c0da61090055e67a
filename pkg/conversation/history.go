package conversation

import (
	"sync"

	"github.com/teslashibe/go-pepper/pkg/inference"
)

// DefaultMaxTurns bounds the history window. One turn is a user
// utterance plus the assistant's reply.
const DefaultMaxTurns = 10

// History is a sliding window of completed conversation turns. Tool
// call traffic inside a turn is not retained; only the user text and
// the final assistant reply survive, so the prompt stays small and
// never carries dangling tool call references.
type History struct {
	mu       sync.Mutex
	messages []inference.Message
	maxTurns int
}

// NewHistory creates an empty history with the default window.
func NewHistory() *History {
	return &History{maxTurns: DefaultMaxTurns}
}

// NewHistoryWithLimit creates a history bounded to maxTurns turns.
func NewHistoryWithLimit(maxTurns int) *History {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &History{maxTurns: maxTurns}
}

// AddTurn appends a completed user/assistant exchange and evicts the
// oldest turn when the window is full.
func (h *History) AddTurn(userText, assistantText string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		inference.NewUserMessage(userText),
		inference.NewAssistantMessage(assistantText),
	)
	if max := h.maxTurns * 2; len(h.messages) > max {
		h.messages = h.messages[len(h.messages)-max:]
	}
}

// Messages returns a copy of the windowed messages in order.
func (h *History) Messages() []inference.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]inference.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear empties the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
