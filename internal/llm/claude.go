package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	api   *anthropic.Client
	model anthropic.Model
	opts  Options
}

func NewClaudeClient(apiKey string, model string, baseURL string, opts Options) *ClaudeClient {
	var clientOpts []anthropic.ClientOption
	if baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		api:   anthropic.NewClient(apiKey, clientOpts...),
		model: anthropic.Model(model),
		opts:  opts,
	}
}

// Generate joins every text block of the reply.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := c.opts.Temperature
	resp, err := c.api.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       c.model,
		System:      systemInstruction,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens:   c.opts.maxTokens(),
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude messages (%s): %w", c.model, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude %s: %w", c.model, ErrEmptyReply)
	}
	return sb.String(), nil
}
