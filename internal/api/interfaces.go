// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/models"
	"github.com/rag-file-chatbot/backend/internal/session"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles chat session lifecycle operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleListSessions(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
}

// FileHandler handles the file selection of a session
type FileHandler interface {
	HandleUploadFiles(c echo.Context) error
	HandleListFiles(c echo.Context) error
}

// ChatHandler handles queries and conversation history
type ChatHandler interface {
	HandleSendMessage(c echo.Context) error
	HandleGetHistory(c echo.Context) error
	HandleGetHistoryMsgpack(c echo.Context) error
}

// FeedHandler streams session events over a WebSocket
type FeedHandler interface {
	HandleFeed(c echo.Context) error
}

// SessionRegistry defines the session operations the handlers need.
// *session.Manager implements it.
type SessionRegistry interface {
	Create() *session.Controller
	Get(id string) (*session.Controller, bool)
	Info(id string) (models.SessionInfo, bool)
	List() []models.SessionInfo
	Delete(id string) error
	Count() int
}

var _ SessionRegistry = (*session.Manager)(nil)

// lookupSession resolves the :id path parameter to a live session.
func lookupSession(c echo.Context, sessions SessionRegistry) (*session.Controller, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	ctrl, ok := sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return ctrl, nil
}
