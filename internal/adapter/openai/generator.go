package openai

import (
	"context"
	"errors"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("openai returned no choices")

type Generator struct {
	client *goopenai.Client
	model  string
}

// NewGenerator creates a chat completion client. An empty baseURL uses the
// public OpenAI endpoint; any OpenAI compatible server can be targeted.
func NewGenerator(apiKey, model, baseURL string) *Generator {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating content", "model", g.model, "length", len(prompt))

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "chat completion failed", "model", g.model, "error", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
