package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/recordlink/internal/config"
)

// NewClient builds the client named by cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)
	opts := Options{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, opts)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "ollama":
		baseURL := OllamaBaseURL(cfg.BaseURL)
		if logger != nil {
			logger.Info("using ollama through its OpenAI-compatible API", "base_url", baseURL, "model", cfg.Model)
		}

		// Ollama ignores the key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL, opts), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// OllamaBaseURL appends the /v1 suffix Ollama serves its OpenAI API under.
func OllamaBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/v1"
}
