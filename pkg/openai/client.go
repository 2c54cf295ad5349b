// Package openai wraps the OpenAI chat completion API as a single-turn
// text completer.
package openai

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4-turbo-preview"

// zeroTemperature encodes temperature 0. A literal 0 is dropped by omitempty.
const zeroTemperature = math.SmallestNonzeroFloat32

// ChatClient is the subset of the go-openai client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Option configures a Completer.
type Option func(*goopenai.ClientConfig)

// WithBaseURL overrides the API base URL, e.g. for a proxy or test server.
func WithBaseURL(url string) Option {
	return func(c *goopenai.ClientConfig) {
		if url != "" {
			c.BaseURL = strings.TrimRight(url, "/")
		}
	}
}

// Completer answers single-turn prompts with an OpenAI chat model.
type Completer struct {
	client ChatClient
	model  string
}

// NewCompleter creates a completer for apiKey. An empty model uses DefaultModel.
func NewCompleter(apiKey, model string, opts ...Option) *Completer {
	cfg := goopenai.DefaultConfig(apiKey)
	for _, o := range opts {
		o(&cfg)
	}
	return NewCompleterWithClient(goopenai.NewClientWithConfig(cfg), model)
}

// NewCompleterWithClient wraps an existing chat client.
func NewCompleterWithClient(client ChatClient, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// Complete sends a system and a user message and returns the first choice's
// trimmed content.
func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: zeroTemperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: create chat completion")
	}

	zap.L().Debug("openai: usage",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return "", eris.New("openai: no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
