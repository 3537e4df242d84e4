package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/events"
	"github.com/rag-file-chatbot/backend/internal/models"
)

// WebSocket message types for the session feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
)

// WSMessage is the envelope of every feed message.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSSnapshot is sent once on connect so clients start from current state.
type WSSnapshot struct {
	Status models.SessionStatus `json:"status"`
	Files  []models.FileInfo    `json:"files"`
	Turns  []models.Turn        `json:"turns"`
}

// WSErrorResponse describes a protocol error.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FeedHandlerImpl pushes the events of one session to a WebSocket client.
type FeedHandlerImpl struct {
	sessions SessionRegistry
	hub      *events.Hub
	upgrader websocket.Upgrader
	readMax  int64
	logger   *slog.Logger
}

// NewFeedHandler creates a feed handler. maxMessageKB bounds client messages.
func NewFeedHandler(sessions SessionRegistry, hub *events.Hub, maxMessageKB int, logger *slog.Logger) FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	return &FeedHandlerImpl{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		readMax: int64(maxMessageKB) * 1024,
		logger:  logger,
	}
}

// HandleFeed upgrades the connection and streams session events until the
// client leaves or the session is dropped.
func (h *FeedHandlerImpl) HandleFeed(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	sub := h.hub.Subscribe(ctrl.ID())
	defer sub.Close()

	log := h.logger.With("session", ctrl.ID())
	log.Debug("feed client connected")

	out := make(chan WSMessage, 8)
	done := make(chan struct{})
	go h.readLoop(ws, out, done, log)

	if err := h.write(ws, WSMessage{
		Type:      MsgTypeConnected,
		ID:        ctrl.ID(),
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSSnapshot{
			Status: ctrl.Status(),
			Files:  ctrl.Files(),
			Turns:  ctrl.Turns(),
		}),
	}); err != nil {
		return nil
	}

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				h.close(ws, websocket.CloseGoingAway, "session closed")
				log.Debug("feed closed with session")
				return nil
			}
			msg := WSMessage{
				Type:      MsgTypeEvent,
				ID:        string(ev.Type),
				Payload:   mustJSON(ev),
				Timestamp: ev.Timestamp,
			}
			if err := h.write(ws, msg); err != nil {
				log.Debug("feed write failed", "error", err)
				return nil
			}
		case msg := <-out:
			if err := h.write(ws, msg); err != nil {
				return nil
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			log.Debug("feed client disconnected")
			return nil
		}
	}
}

// readLoop answers pings and detects disconnects. Replies go through out so
// that only HandleFeed writes to the connection.
func (h *FeedHandlerImpl) readLoop(ws *websocket.Conn, out chan<- WSMessage, done chan<- struct{}, log *slog.Logger) {
	defer close(done)

	ws.SetReadLimit(h.readMax)
	ws.SetReadDeadline(time.Now().Add(feedPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("feed connection error", "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(feedPongWait))

		reply := WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}
		if msg.Type != MsgTypePing {
			reply = WSMessage{
				Type:      MsgTypeError,
				Timestamp: time.Now().UnixMilli(),
				Payload:   mustJSON(WSErrorResponse{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"}),
			}
		}
		select {
		case out <- reply:
		default:
		}
	}
}

func (h *FeedHandlerImpl) write(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return ws.WriteJSON(msg)
}

func (h *FeedHandlerImpl) close(ws *websocket.Conn, code int, text string) {
	ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
