package anthropic

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// Completer answers single-turn prompts with a Claude model at temperature 0.
type Completer struct {
	client    Client
	model     string
	maxTokens int64
}

// NewCompleter wraps client. Empty model and non-positive maxTokens fall back
// to defaults.
func NewCompleter(client Client, model string, maxTokens int64) *Completer {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Completer{client: client, model: model, maxTokens: maxTokens}
}

// Complete sends system and prompt and returns the trimmed text reply.
func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(c.model)

	if len(resp.Content) == 0 {
		return "", eris.New("anthropic: empty response")
	}
	return strings.TrimSpace(resp.Text()), nil
}
