package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrMissingAPIKey is returned when DEEPSEEK_API_KEY is not configured.
// Construction fails fast so no retrieval work is wasted on a doomed call.
var ErrMissingAPIKey = errors.New("DEEPSEEK_API_KEY is not set")

// Client wraps an OpenAI-compatible chat completion API (DeepSeek).
// Temperature is pinned to 0 for reproducible evaluation runs.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewClient builds a chat client for the given model. The API key is
// required; base URL defaults to the DeepSeek endpoint.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		),
		model: model,
	}, nil
}

// Chat sends an optional system message plus a user message and returns the
// completion text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	slog.Debug("Calling chat model...", "model", c.model)

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from chat model")
	}
	return completion.Choices[0].Message.Content, nil
}

// Generate sends a single user prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, "", prompt)
}
