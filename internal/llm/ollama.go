package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

const DefaultOllamaURL = "http://127.0.0.1:11434"

type Ollama struct {
	llm    llms.Model
	client *resty.Client
}

func NewOllama(serverURL string, httpClient *http.Client) (*Ollama, error) {
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}
	// ollama.WithServerURL exits the process on a malformed url.
	if _, err := url.ParseRequestURI(serverURL); err != nil {
		return nil, fmt.Errorf("invalid ollama url '%s': %w", serverURL, err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}}
	}

	llm, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}

	return &Ollama{
		llm:    llm,
		client: resty.NewWithClient(httpClient).SetBaseURL(strings.TrimSuffix(serverURL, "/")),
	}, nil
}

func (o *Ollama) Stream(ctx context.Context, req Request, fn StreamFunc) (text string, err error) {
	// The ollama client dereferences the final frame unconditionally, which
	// panics when the body ends without a done frame.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ollama stream ended without completion", "model", req.Model, "panic", r)
			text, err = "", ErrIncompleteStream
		}
	}()

	var full strings.Builder
	_, err = o.llm.GenerateContent(ctx, toMessageContent(req.Messages),
		llms.WithModel(req.Model),
		llms.WithTemperature(req.Temperature),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			full.Write(chunk)
			return fn(ctx, string(chunk))
		}),
	)
	if err != nil {
		return "", fmt.Errorf("ollama chat stream failed: %w", err)
	}

	return full.String(), nil
}

func (o *Ollama) Complete(ctx context.Context, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ollama completion ended without a final frame", "model", req.Model, "panic", r)
			text, err = "", ErrIncompleteStream
		}
	}()

	res, err := o.llm.GenerateContent(ctx, toMessageContent(req.Messages),
		llms.WithModel(req.Model),
		llms.WithTemperature(req.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("ollama chat returned no choices")
	}

	return res.Choices[0].Content, nil
}

type ollamaTags struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTags
	res, err := o.client.R().
		SetContext(ctx).
		SetResult(&tags).
		Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("error listing ollama models: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("error listing ollama models: status %d: %s", res.StatusCode(), res.String())
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		models = append(models, name)
	}
	return models, nil
}

func toMessageContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		parts := []llms.ContentPart{llms.TextContent{Text: m.Content}}
		for _, img := range m.Images {
			parts = append(parts, llms.BinaryPart(http.DetectContentType(img), img))
		}
		out = append(out, llms.MessageContent{Role: toMessageType(m.Role), Parts: parts})
	}
	return out
}

func toMessageType(role Role) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
