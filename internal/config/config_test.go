package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/mindbuddy/internal/config"
	"github.com/petasbytes/mindbuddy/internal/provider"
)

var envKeys = []string{
	"MINDBUDDY_PROVIDER", "MINDBUDDY_MODEL", "MINDBUDDY_BASE_URL", "MINDBUDDY_ESTIMATOR",
	"MINDBUDDY_CHAT_KEY", "MINDBUDDY_STYLE", "MINDBUDDY_STORE_PATH", "MINDBUDDY_PROFILE_PATH",
	"MINDBUDDY_ADDR", "MINDBUDDY_EVENTS_PATH", "MINDBUDDY_LOG_LEVEL", "MINDBUDDY_LOG_FORMAT",
	"MINDBUDDY_CORS_ORIGINS", "MINDBUDDY_OBSERVE_JSON", "MINDBUDDY_TEMPERATURE",
	"MINDBUDDY_TOKEN_BUDGET", "MINDBUDDY_MAX_TOKENS", "MINDBUDDY_RATE_LIMIT",
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
}

// cleanEnv blanks every variable Load reads so the host environment cannot leak in.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "mindbuddy.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, provider.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Equal(t, 3000, cfg.Chat.TokenBudget)
	assert.Equal(t, "chars", cfg.Chat.Estimator)
	assert.Equal(t, "default", cfg.Chat.Key)
	assert.Equal(t, filepath.Join(home, ".mindbuddy_chat.json"), cfg.Store.Path)
	assert.Equal(t, "profile.json", cfg.Profile.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Server.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MB_TEST_KEY", "sk-from-file")

	p := writeFile(t, `
llm:
  provider: anthropic
  api_key: ${MB_TEST_KEY}
  temperature: 0.3
chat:
  token_budget: 1200
  estimator: words
  style: mom
store:
  path: /tmp/chat.json
server:
  cors_origins: ["http://localhost:3000"]
  rate_limit: 5
telemetry:
  enabled: true
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, provider.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-from-file", cfg.LLM.APIKey)
	assert.Equal(t, string(provider.DefaultAnthropicModel), cfg.LLM.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1200, cfg.Chat.TokenBudget)
	assert.Equal(t, "words", cfg.Chat.Estimator)
	assert.Equal(t, "mom", cfg.Chat.Style)
	assert.Equal(t, "/tmp/chat.json", cfg.Store.Path)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5, cfg.Server.RateLimit)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	cleanEnv(t)
	p := writeFile(t, "chat:\n  budget: 10\n")
	_, err := config.Load(p)
	assert.Error(t, err)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cleanEnv(t)
	cfg, err := config.Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Chat.TokenBudget)
}

func TestLoad_MissingFile(t *testing.T) {
	cleanEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MINDBUDDY_TOKEN_BUDGET", "500")
	t.Setenv("MINDBUDDY_MODEL", "gpt-4o-mini")
	t.Setenv("MINDBUDDY_TEMPERATURE", "0.7")
	t.Setenv("MINDBUDDY_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("MINDBUDDY_OBSERVE_JSON", "1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := config.Load(writeFile(t, "chat:\n  token_budget: 1200\n"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chat.TokenBudget)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoad_InvalidNumber(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MINDBUDDY_TOKEN_BUDGET", "lots")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "MINDBUDDY_TOKEN_BUDGET")
}

func TestLoad_APIKeyFollowsProvider(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MINDBUDDY_PROVIDER", "Anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	cleanEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "llama"
	cfg.Chat.TokenBudget = 0
	cfg.Chat.Estimator = "tiktoken"
	err = cfg.Validate()
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
	assert.ErrorContains(t, err, "token budget")
	assert.ErrorContains(t, err, "tiktoken")
}
