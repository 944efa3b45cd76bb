package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient keeps one configured GenerativeModel for all reviews.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string, opts Options) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	gm := client.GenerativeModel(model)
	gm.SetTemperature(opts.Temperature)
	gm.SetMaxOutputTokens(int32(opts.maxTokens()))
	gm.ResponseMIMEType = "application/json"
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}
	return &GeminiClient{client: client, model: gm, name: model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", c.name, err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("gemini %s: %w", c.name, ErrEmptyReply)
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
