// handlers_chat.go - Query and history handlers
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// ChatHandlerImpl implements the ChatHandler interface
type ChatHandlerImpl struct {
	sessions SessionRegistry
	logger   *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions SessionRegistry, logger *slog.Logger) ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandlerImpl{sessions: sessions, logger: logger}
}

type sendMessageRequest struct {
	Query string `json:"query"`
}

type historyResponse struct {
	SessionID string               `json:"sessionId" msgpack:"sessionId"`
	Status    models.SessionStatus `json:"status" msgpack:"status"`
	Turns     []models.Turn        `json:"turns" msgpack:"turns"`
}

// HandleSendMessage submits a query and returns the updated history. An
// empty query leaves the history untouched.
func (h *ChatHandlerImpl) HandleSendMessage(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := ctrl.Send(c.Request().Context(), req.Query); err != nil {
		h.logger.Warn("query failed", "session", ctrl.ID(), "error", err)
		return chatError(err)
	}

	return c.JSON(http.StatusOK, historyResponse{
		SessionID: ctrl.ID(),
		Status:    ctrl.Status(),
		Turns:     ctrl.Turns(),
	})
}

// HandleGetHistory returns the conversation as JSON
func (h *ChatHandlerImpl) HandleGetHistory(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, historyResponse{
		SessionID: ctrl.ID(),
		Status:    ctrl.Status(),
		Turns:     ctrl.Turns(),
	})
}

// HandleGetHistoryMsgpack returns the conversation in MessagePack format
func (h *ChatHandlerImpl) HandleGetHistoryMsgpack(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(historyResponse{
		SessionID: ctrl.ID(),
		Status:    ctrl.Status(),
		Turns:     ctrl.Turns(),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}
