package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI talks to any OpenAI compatible chat completions endpoint. Image
// payloads are not forwarded.
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(baseURL, apiKey string) *OpenAI {
	var opts []option.RequestOption
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) params(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		if len(m.Images) > 0 {
			slog.Warn("dropping image attachments for openai request", "model", req.Model, "images", len(m.Images))
		}
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
	}
}

func (o *OpenAI) Stream(ctx context.Context, req Request, fn StreamFunc) (string, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	var full []byte
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		full = append(full, delta...)
		if err := fn(ctx, delta); err != nil {
			return "", err
		}
	}
	if err := stream.Err(); err != nil {
		slog.Error("openai error: chat completion stream failed", "error", err)
		return "", fmt.Errorf("openai chat stream failed: %w", err)
	}

	return string(full), nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai chat returned no choices")
	}

	return res.Choices[0].Message.Content, nil
}

func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	page, err := o.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing openai models: %w", err)
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}
