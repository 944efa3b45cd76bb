package core

import (
	"context"
	"sync"
)

// scriptedLLM replies with the same verdict to every prompt and counts calls.
type scriptedLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (m *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}
