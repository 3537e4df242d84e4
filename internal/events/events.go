// Package events carries session change notifications to interested
// listeners: websocket clients in-process and, optionally, a NATS bus.
package events

import (
	"time"

	"github.com/rag-file-chatbot/backend/internal/models"
)

// Type names a session change.
type Type string

const (
	TypeTurnAppended   Type = "turn.appended"
	TypeTurnResolved   Type = "turn.resolved"
	TypeHistoryCleared Type = "history.cleared"
	TypeFilesReplaced  Type = "files.replaced"
)

// Event describes one change to a session.
type Event struct {
	Type      Type              `json:"type" msgpack:"type"`
	SessionID string            `json:"sessionId" msgpack:"sessionId"`
	Index     int               `json:"index,omitempty" msgpack:"index,omitempty"`
	Turn      *models.Turn      `json:"turn,omitempty" msgpack:"turn,omitempty"`
	Files     []models.FileInfo `json:"files,omitempty" msgpack:"files,omitempty"`
	Timestamp int64             `json:"timestamp" msgpack:"timestamp"`
}

// New stamps an event with the current time.
func New(t Type, sessionID string) Event {
	return Event{Type: t, SessionID: sessionID, Timestamp: time.Now().UnixMilli()}
}

// Publisher delivers events. Implementations must not block the caller for
// long and must be safe for concurrent use.
type Publisher interface {
	Publish(e Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}
