// Package conversation holds the ordered turn list of a chat session.
package conversation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rag-file-chatbot/backend/internal/models"
)

// ErrNotPending is returned when resolving a turn that already has its reply.
var ErrNotPending = errors.New("turn is not pending")

// History is an append-only sequence of turns. Insertion order is display
// order. Safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	turns []models.Turn
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a completed turn and returns its index.
func (h *History) Append(user, assistant string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, models.Turn{User: user, Assistant: assistant})
	return len(h.turns) - 1
}

// AppendPending adds a turn whose assistant side shows the placeholder until
// Resolve is called.
func (h *History) AppendPending(user string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, models.Turn{
		User:      user,
		Assistant: models.PlaceholderText,
		Pending:   true,
	})
	return len(h.turns) - 1
}

// Insert places a completed turn at index at, shifting later turns back.
func (h *History) Insert(at int, user, assistant string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if at < 0 || at > len(h.turns) {
		return fmt.Errorf("insert index %d out of range [0,%d]", at, len(h.turns))
	}
	h.turns = append(h.turns, models.Turn{})
	copy(h.turns[at+1:], h.turns[at:])
	h.turns[at] = models.Turn{User: user, Assistant: assistant}
	return nil
}

// Resolve replaces the placeholder of the pending turn at index i. A turn can
// be resolved once.
func (h *History) Resolve(i int, assistant string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.turns) {
		return fmt.Errorf("turn %d out of range", i)
	}
	if !h.turns[i].Pending {
		return fmt.Errorf("turn %d: %w", i, ErrNotPending)
	}
	h.turns[i].Assistant = assistant
	h.turns[i].Pending = false
	return nil
}

// Turn returns the turn at index i.
func (h *History) Turn(i int) (models.Turn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.turns) {
		return models.Turn{}, false
	}
	return h.turns[i], true
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Turns returns a snapshot copy of all turns.
func (h *History) Turns() []models.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// UserMessages returns the user side of every turn, in order.
func (h *History) UserMessages() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.turns))
	for i, t := range h.turns {
		out[i] = t.User
	}
	return out
}

// Clear empties the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
