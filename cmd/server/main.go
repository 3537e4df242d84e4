package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rag-file-chatbot/backend/internal/api"
	"github.com/rag-file-chatbot/backend/internal/config"
	"github.com/rag-file-chatbot/backend/internal/events"
	"github.com/rag-file-chatbot/backend/internal/extract"
	"github.com/rag-file-chatbot/backend/internal/llm"
	"github.com/rag-file-chatbot/backend/internal/ocr"
	"github.com/rag-file-chatbot/backend/internal/prompts"
	"github.com/rag-file-chatbot/backend/internal/session"
	"github.com/rag-file-chatbot/backend/internal/storage"
	"github.com/rag-file-chatbot/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: failed to load .env: %v\n", err)
	}

	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.FileName)
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Advanced.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, configPath, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return fmt.Errorf("invalid MaxUploadSize: %w", err)
	}
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir(), maxUpload)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	csvExtractor, err := extract.NewCSVExtractor(extract.CSVOptions{
		TempDir:     cfg.Storage.TempDirectory,
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	})
	if err != nil {
		return err
	}
	defer csvExtractor.Close()

	textClient, err := newCompletionClient(ctx, cfg, cfg.Models.TextModel)
	if err != nil {
		return fmt.Errorf("text model: %w", err)
	}
	visionClient, err := newCompletionClient(ctx, cfg, cfg.Models.VisionModel)
	if err != nil {
		return fmt.Errorf("vision model: %w", err)
	}

	profiles, err := prompts.NewStore(cfg.Advanced.PromptsFile, logger)
	if err != nil {
		return fmt.Errorf("failed to load prompt profile: %w", err)
	}
	if err := profiles.Watch(ctx); err != nil {
		logger.Warn("prompt profile hot reload disabled", "error", err)
	}

	hub := events.NewHub()
	defer hub.Close()
	publishers := events.Multi{hub}
	if cfg.Events.NatsURL != "" {
		natsPub, err := events.NewNATSPublisher(ctx, cfg.Events.NatsURL, cfg.Events.NatsToken, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("NATS event publishing disabled", "url", cfg.Events.NatsURL, "error", err)
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
		}
	}

	registry := extract.DefaultRegistry(newOCRReader(cfg, logger), csvExtractor)
	sessionMgr := session.NewManager(session.Config{
		Dispatcher:    session.NewDispatcher(registry, textClient, visionClient, profiles, logger),
		Chat:          textClient,
		Files:         fileStore,
		Events:        publishers,
		Logger:        logger,
		MaxQueryChars: cfg.Session.MaxQueryChars,
	}, cfg.Session.MaxSessions)
	sessionMgr.OnRemove(hub.CloseSession)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					logger.Info("session cleanup", "removed", n, "remaining", sessionMgr.Count())
				}
			}
		}
	}()

	e := newEcho(cfg, logger)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:        fileStore,
		Sessions:     sessionMgr,
		Hub:          hub,
		Logger:       logger,
		Version:      Version,
		MaxMessageKB: cfg.Advanced.WebSocketMaxMessageSize,
	}))
	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register chat page", "error", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, textClient, visionClient)

	errc := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func newCompletionClient(ctx context.Context, cfg *config.AppConfig, model string) (llm.Client, error) {
	opts := llm.Options{
		Provider:  cfg.Models.Provider,
		Model:     model,
		BaseURL:   cfg.Models.BaseURL,
		MaxTokens: cfg.Models.MaxTokens,
		Timeout:   cfg.ModelTimeout(),
	}
	switch cfg.Models.Provider {
	case "anthropic", "claude":
		opts.APIKey = cfg.Models.AnthropicAPIKey
	case "gemini", "google":
		opts.APIKey = cfg.Models.GeminiAPIKey
	case "ollama":
		opts.BaseURL = cfg.Models.OllamaHost
	default:
		opts.APIKey = cfg.Models.OpenAIAPIKey
	}
	return llm.NewClient(ctx, opts)
}

// newOCRReader returns the OpenAI vision reader when it is configured.
func newOCRReader(cfg *config.AppConfig, logger *slog.Logger) ocr.Reader {
	if cfg.Models.OCRProvider != "openai" || cfg.Models.OpenAIAPIKey == "" {
		logger.Warn("image text extraction disabled", "ocrProvider", cfg.Models.OCRProvider)
		return ocr.Unavailable{}
	}
	client := llm.NewOpenAIClient(cfg.Models.OpenAIAPIKey, cfg.Models.BaseURL, cfg.Models.VisionModel, cfg.Models.MaxTokens)
	return ocr.NewVisionReader(client.API(), cfg.Models.VisionModel)
}

func newEcho(cfg *config.AppConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/messages") ||
				strings.HasSuffix(path, "/files") ||
				strings.HasSuffix(path, "/ws")
		},
		ErrorMessage: "Request timeout",
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	return e
}

func printBanner(cfg *config.AppConfig, configPath string, text, vision llm.Client) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           RAG File Chatbot Server                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Provider:   %-45s║\n", cfg.Models.Provider)
	fmt.Printf("║  Text:       %-45s║\n", text.Model())
	fmt.Printf("║  Vision:     %-45s║\n", vision.Model())
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Uploads:   %-46s║\n", cfg.GetUploadDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
