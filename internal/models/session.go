package models

import "time"

// SessionStatus represents the state of a chat session.
type SessionStatus string

const (
	SessionStatusIdle               SessionStatus = "idle"
	SessionStatusAwaitingCompletion SessionStatus = "awaiting_completion"
)

// SessionInfo is the externally visible summary of a chat session.
type SessionInfo struct {
	ID           string        `json:"id"`
	Status       SessionStatus `json:"status"`
	Files        []FileInfo    `json:"files"`
	TurnCount    int           `json:"turnCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastAccessed time.Time     `json:"lastAccessed"`
}
