// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/events"
	"github.com/rag-file-chatbot/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store        storage.Store
	Sessions     SessionRegistry
	Hub          *events.Hub
	Logger       *slog.Logger
	Version      string
	MaxMessageKB int
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Files   FileHandler
	Chat    ChatHandler
	Feed    FeedHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions),
		Session: NewSessionHandler(deps.Sessions, deps.Logger),
		Files:   NewFileHandler(deps.Store, deps.Sessions, deps.Logger),
		Chat:    NewChatHandler(deps.Sessions, deps.Logger),
		Feed:    NewFeedHandler(deps.Sessions, deps.Hub, deps.MaxMessageKB, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session lifecycle
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("", handlers.Session.HandleListSessions)
	sessionGroup.GET("/:id", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:id", handlers.Session.HandleDeleteSession)

	// File selection
	sessionGroup.PUT("/:id/files", handlers.Files.HandleUploadFiles)
	sessionGroup.GET("/:id/files", handlers.Files.HandleListFiles)

	// Conversation
	sessionGroup.POST("/:id/messages", handlers.Chat.HandleSendMessage)
	sessionGroup.GET("/:id/history", handlers.Chat.HandleGetHistory)
	sessionGroup.GET("/:id/history/msgpack", handlers.Chat.HandleGetHistoryMsgpack)

	// Event feed
	sessionGroup.GET("/:id/ws", handlers.Feed.HandleFeed)
}

// SetupMiddleware configures the error handler shared by all routes
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
