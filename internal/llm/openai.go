package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to OpenAI or any server speaking its chat API, such
// as Ollama.
type OpenAIClient struct {
	api   *openai.Client
	model string
	opts  Options
}

func NewOpenAIClient(apiKey string, model string, baseURL string, opts Options) *OpenAIClient {
	cc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cc), model: model, opts: opts}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    c.opts.Temperature,
		MaxTokens:      c.opts.maxTokens(),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion (%s): %w", c.model, err)
	}
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("openai %s: %w", c.model, ErrEmptyReply)
}
