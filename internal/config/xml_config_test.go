package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_DIR", "LLM_PROVIDER", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "OLLAMA_HOST", "NATS_URL", "NATS_TOKEN", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<RAGFileChatbot>")
	assert.Contains(t, string(data), "<TextModel>gpt-3.5-turbo</TextModel>")

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Models.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.VisionModel)
	assert.Equal(t, 10000, cfg.Session.MaxQueryChars)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dir, "prompts.yaml"), cfg.Advanced.PromptsFile)
}

func TestLoadConfig_ReadsFileAndKeepsUnsetDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	xmlDoc := `<RAGFileChatbot>
  <Server><Port>9000</Port></Server>
  <Models><Provider>ollama</Provider><TextModel>llama3</TextModel></Models>
</RAGFileChatbot>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.Models.Provider)
	assert.Equal(t, "llama3", cfg.Models.TextModel)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.VisionModel)
	assert.Equal(t, 100, cfg.Session.MaxSessions)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("NATS_TOKEN", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")

	path := filepath.Join(dir, FileName)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.Storage.DataDirectory)
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.Storage.UploadsDirectory)
	assert.Equal(t, "anthropic", cfg.Models.Provider)
	assert.Equal(t, "sk-ant", cfg.Models.AnthropicAPIKey)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.NatsURL)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)

	// Secrets never reach the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "sk-ant"))
	assert.False(t, strings.Contains(string(data), "secret"))
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("<RAGFileChatbot><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  bool
	}{
		{"100M", 100 << 20, false},
		{"2G", 2 << 30, false},
		{"512KB", 512 << 10, false},
		{"1024", 1024, false},
		{"", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.resolvePaths(t.TempDir())
	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Storage.DataDirectory, cfg.Storage.UploadsDirectory, cfg.Storage.TempDirectory} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
