// handlers_session.go - Chat session lifecycle handlers
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionRegistry
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionRegistry, logger *slog.Logger) SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandlerImpl{sessions: sessions, logger: logger}
}

// HandleCreateSession starts an empty chat session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	ctrl := h.sessions.Create()
	info, _ := h.sessions.Info(ctrl.ID())
	h.logger.Info("session created", "session", ctrl.ID())
	return c.JSON(http.StatusCreated, info)
}

// HandleListSessions returns every live session, most recently used first
func (h *SessionHandlerImpl) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetSession returns the state, files and turn count of a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	info, ok := h.sessions.Info(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteSession drops a session and its uploaded files
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return NewNotFoundError("session", id)
		}
		return NewInternalError("failed to delete session", err)
	}
	h.logger.Info("session deleted", "session", id)
	return c.NoContent(http.StatusNoContent)
}
