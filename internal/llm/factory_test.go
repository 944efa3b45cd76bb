package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agenthands/recordlink/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, config.LLMConfig{Provider: "OpenAI", Model: "gpt-4o-mini", APIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "claude", Model: "claude-3-haiku-20240307", APIKey: "key"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, c)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "ollama", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = NewClient(ctx, config.LLMConfig{Provider: "watson"}, nil)
	assert.Error(t, err)
}

func TestOllamaBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/v1", OllamaBaseURL(""))
	assert.Equal(t, "http://gpu:11434/v1", OllamaBaseURL("http://gpu:11434/"))
	assert.Equal(t, "http://gpu:11434/v1", OllamaBaseURL("http://gpu:11434/v1"))
}

func TestOptionsMaxTokens(t *testing.T) {
	assert.Equal(t, defaultMaxTokens, Options{}.maxTokens())
	assert.Equal(t, 64, Options{MaxTokens: 64}.maxTokens())
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" {\"duplicate\": true} "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "llama3", srv.URL+"/v1", Options{MaxTokens: 64})
	reply, err := c.Generate(context.Background(), "compare these")
	require.NoError(t, err)
	assert.Equal(t, `{"duplicate": true}`, reply)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "compare these", got.Messages[1].Content)
	assert.Equal(t, 64, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestOpenAIClient_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("key", "llama3", srv.URL+"/v1", Options{}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyReply)
}
