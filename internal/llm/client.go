package llm

import (
	"context"
	"errors"
)

// LLMClient sends one prompt and returns the model's text reply.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyReply is returned when a provider answers without any text.
var ErrEmptyReply = errors.New("llm returned an empty reply")

// systemInstruction is sent alongside every review prompt.
const systemInstruction = "You compare catalogue records. Reply with a single JSON object and nothing else."

// Options tune generation for every provider.
type Options struct {
	// Temperature 0 keeps pair reviews repeatable.
	Temperature float32
	MaxTokens   int
}

const defaultMaxTokens = 512

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}
