package config

import (
	"fmt"
	"strings"
	"time"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/relay"
	"assistant-backend/internal/search"
	"assistant-backend/pkg/api"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"3001"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// A postgres url or a sqlite file path.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./data/assistant.db"`

	LLMProvider   string `env:"LLM_PROVIDER" envDefault:"ollama"`
	OllamaHost    string `env:"OLLAMA_HOST" envDefault:"http://127.0.0.1:11434"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	DefaultProfile string `env:"DEFAULT_PROFILE"`
	CatalogFile    string `env:"CATALOG_FILE"`

	DispatchCommands  bool          `env:"DISPATCH_COMMANDS" envDefault:"true"`
	ChatTemperature   float64       `env:"CHAT_TEMPERATURE" envDefault:"0.7"`
	AuxTemperature    float64       `env:"AUX_TEMPERATURE" envDefault:"0.4"`
	StreamIdleTimeout time.Duration `env:"STREAM_IDLE_TIMEOUT" envDefault:"2m"`

	SearchAPIKey      string `env:"SEARCH_API_KEY"`
	SearchAPIEndpoint string `env:"SEARCH_API_ENDPOINT" envDefault:"https://api.bing.microsoft.com/v7.0/search"`
	SearchResultCount int    `env:"SEARCH_RESULT_COUNT" envDefault:"5"`

	AdminSecret    string   `env:"ADMIN_SECRET"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Turn events are published to rabbitmq when set, otherwise they are
	// processed in-process.
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	switch cfg.LLMProvider {
	case llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER '%s', must be one of: %s, %s", cfg.LLMProvider, llm.ProviderOllama, llm.ProviderOpenAI)
	}

	if cfg.LLMProvider == llm.ProviderOpenAI && cfg.OpenAIBaseURL == "" {
		return fmt.Errorf("OPENAI_BASE_URL must be set when LLM_PROVIDER is openai")
	}

	for name, temp := range map[string]float64{"CHAT_TEMPERATURE": cfg.ChatTemperature, "AUX_TEMPERATURE": cfg.AuxTemperature} {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%s must be between 0 and 2, got %v", name, temp)
		}
	}

	if cfg.StreamIdleTimeout < 0 {
		return fmt.Errorf("STREAM_IDLE_TIMEOUT must not be negative")
	}

	if cfg.SearchResultCount < 1 || cfg.SearchResultCount > search.MaxCount {
		return fmt.Errorf("SEARCH_RESULT_COUNT must be between 1 and %d", search.MaxCount)
	}

	return nil
}

func (cfg Config) LLM() llm.Config {
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI:
		return llm.Config{Provider: cfg.LLMProvider, BaseURL: cfg.OpenAIBaseURL, APIKey: cfg.OpenAIAPIKey}
	default:
		return llm.Config{Provider: cfg.LLMProvider, BaseURL: cfg.OllamaHost}
	}
}

func (cfg Config) Relay() relay.Config {
	return relay.Config{
		DispatchCommands:  cfg.DispatchCommands,
		Temperature:       cfg.ChatTemperature,
		AuxTemperature:    cfg.AuxTemperature,
		StreamIdleTimeout: cfg.StreamIdleTimeout,
		SearchResultCount: cfg.SearchResultCount,
	}
}

func (cfg Config) Features() api.Features {
	return api.Features{
		CommandDispatch: cfg.DispatchCommands,
		WebSearch:       cfg.DispatchCommands,
		EmailDrafting:   cfg.DispatchCommands,
		ImageInput:      cfg.LLMProvider == llm.ProviderOllama,
	}
}
