package config

import (
	"testing"
	"time"

	"assistant-backend/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, llm.ProviderOllama, cfg.LLMProvider)
	assert.True(t, cfg.DispatchCommands)
	assert.Equal(t, 2*time.Minute, cfg.StreamIdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RabbitMQURL)

	assert.Equal(t, llm.Config{Provider: llm.ProviderOllama, BaseURL: "http://127.0.0.1:11434"}, cfg.LLM())

	relayCfg := cfg.Relay()
	assert.Equal(t, 0.7, relayCfg.Temperature)
	assert.Equal(t, 0.4, relayCfg.AuxTemperature)
	assert.Equal(t, 5, relayCfg.SearchResultCount)

	assert.True(t, cfg.Features().ImageInput)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8000/v1")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DISPATCH_COMMANDS", "false")
	t.Setenv("STREAM_IDLE_TIMEOUT", "30s")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://chat.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, llm.Config{Provider: llm.ProviderOpenAI, BaseURL: "http://localhost:8000/v1", APIKey: "sk-test"}, cfg.LLM())
	assert.Equal(t, 30*time.Second, cfg.Relay().StreamIdleTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://chat.example.com"}, cfg.AllowedOrigins)

	features := cfg.Features()
	assert.False(t, features.CommandDispatch)
	assert.False(t, features.ImageInput)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"provider":       {"LLM_PROVIDER": "anthropic"},
		"openai_url":     {"LLM_PROVIDER": "openai"},
		"temperature":    {"CHAT_TEMPERATURE": "3"},
		"idle_timeout":   {"STREAM_IDLE_TIMEOUT": "-1s"},
		"search_count":   {"SEARCH_RESULT_COUNT": "0"},
		"malformed_bool": {"DISPATCH_COMMANDS": "maybe"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
