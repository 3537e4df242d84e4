// Package config provides XML-based configuration management for the chatbot server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the default configuration file name.
const FileName = "RAGFileChatbot.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"RAGFileChatbot"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Language model configuration
	Models ModelsConfig `xml:"Models"`

	// Chat session configuration
	Session SessionConfig `xml:"Session"`

	// Event feed configuration
	Events EventsConfig `xml:"Events"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	TempDirectory    string `xml:"TempDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize"`
}

// ModelsConfig selects the completion provider. API keys are never written
// to the file; they come from the environment.
type ModelsConfig struct {
	Provider       string `xml:"Provider"`
	TextModel      string `xml:"TextModel"`
	VisionModel    string `xml:"VisionModel"`
	OCRProvider    string `xml:"OCRProvider"`
	BaseURL        string `xml:"BaseURL"`
	OllamaHost     string `xml:"OllamaHost"`
	MaxTokens      int    `xml:"MaxTokens"`
	TimeoutSeconds int    `xml:"TimeoutSeconds"`

	OpenAIAPIKey    string `xml:"-"`
	AnthropicAPIKey string `xml:"-"`
	GeminiAPIKey    string `xml:"-"`
}

// SessionConfig contains chat session limits
type SessionConfig struct {
	MaxSessions            int `xml:"MaxSessions"`
	SessionTimeoutMinutes  int `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	MaxQueryChars          int `xml:"MaxQueryChars"`
}

// EventsConfig contains the optional NATS event publisher settings
type EventsConfig struct {
	NatsURL       string `xml:"NatsURL"`
	NatsToken     string `xml:"-"`
	SubjectPrefix string `xml:"SubjectPrefix"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	DuckDBThreads           int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	PromptsFile             string `xml:"PromptsFile"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "200M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			TempDirectory:    "./data/temp",
			MaxUploadSize:    "100M",
		},
		Models: ModelsConfig{
			Provider:       "openai",
			TextModel:      "gpt-3.5-turbo",
			VisionModel:    "gpt-4o-mini",
			OCRProvider:    "openai",
			MaxTokens:      1024,
			TimeoutSeconds: 120,
		},
		Session: SessionConfig{
			MaxSessions:            100,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			MaxQueryChars:          10000,
		},
		Events: EventsConfig{
			SubjectPrefix: "ragchat",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			DuckDBThreads:           2,
			DuckDBMemoryLimit:       "512MB",
			PromptsFile:             "./prompts.yaml",
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file, writing the defaults first
// when the file does not exist yet.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- RAG File Chatbot Configuration -->\n<!-- API keys are read from the environment, never from this file -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every storage directory that still sits under the default data dir
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		def := DefaultConfig().Storage
		if c.Storage.UploadsDirectory == def.UploadsDirectory {
			c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		}
		if c.Storage.TempDirectory == def.TempDirectory {
			c.Storage.TempDirectory = filepath.Join(dataDir, "temp")
		}
		c.Storage.DataDirectory = dataDir
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.Models.Provider = strings.ToLower(provider)
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Models.OllamaHost = host
	}
	c.Models.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.Models.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Models.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if url := os.Getenv("NATS_URL"); url != "" {
		c.Events.NatsURL = url
	}
	c.Events.NatsToken = os.Getenv("NATS_TOKEN")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = strings.ToLower(level)
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.TempDirectory,
		&c.Advanced.PromptsFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout is how long an unused session lives.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval is the period of the session cleanup ticker.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Session.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Session.CleanupIntervalMinutes) * time.Minute
}

// ModelTimeout bounds a single completion call.
func (c *AppConfig) ModelTimeout() time.Duration {
	return time.Duration(c.Models.TimeoutSeconds) * time.Second
}

// MaxUploadBytes parses Storage.MaxUploadSize.
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	return ParseSize(c.Storage.MaxUploadSize)
}

// ParseSize parses sizes such as "100M", "2G" or "512KB". A bare number is bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	s = strings.TrimSuffix(s, "B")

	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult = 1 << 10
	case strings.HasSuffix(s, "M"):
		mult = 1 << 20
	case strings.HasSuffix(s, "G"):
		mult = 1 << 30
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.TempDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
