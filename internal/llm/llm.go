package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("invalid message role '%s'", s)
	}
}

type Message struct {
	Role    Role
	Content string
	// Decoded image payloads attached to the message.
	Images [][]byte
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// StreamFunc is called once per non-empty delta, in arrival order. Returning
// an error aborts the upstream stream and is returned from Stream.
type StreamFunc func(ctx context.Context, delta string) error

// ChatModel is the LLM runtime as seen by the relay.
type ChatModel interface {
	// Stream runs a streaming completion and returns the concatenated deltas.
	Stream(ctx context.Context, req Request, fn StreamFunc) (string, error)

	// Complete runs a single non-streaming completion.
	Complete(ctx context.Context, req Request) (string, error)

	// ListModels returns the model ids known to the runtime.
	ListModels(ctx context.Context) ([]string, error)
}

var ErrIncompleteStream = errors.New("llm stream ended before completion")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(cfg Config) (ChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOllama:
		return NewOllama(cfg.BaseURL, cfg.HTTPClient)
	case ProviderOpenAI:
		return NewOpenAI(cfg.BaseURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider '%s'", cfg.Provider)
	}
}

// HasModel reports whether the runtime knows model.
func HasModel(ctx context.Context, m ChatModel, model string) (bool, error) {
	models, err := m.ListModels(ctx)
	if err != nil {
		return false, err
	}
	return MatchModel(models, model), nil
}

// MatchModel reports whether model is in installed. Ollama reports untagged
// models with an implicit ":latest" tag, so either spelling matches.
func MatchModel(installed []string, model string) bool {
	for _, name := range installed {
		if name == model || strings.TrimSuffix(name, ":latest") == model || name == model+":latest" {
			return true
		}
	}
	return false
}
