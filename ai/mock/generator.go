package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ragpipe/ai"
)

// Generator is a test double for ai.Generator.
// It allows custom behavior injection via function fields and records the
// prompts of the last call for assertions.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a fixed canned answer.
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string, params ai.GenerationParams) (string, error)

	mu               sync.Mutex
	callCount        int
	lastSystemPrompt string
	lastUserPrompt   string
	lastParams       ai.GenerationParams
}

// NewGenerator creates a mock generator returning a canned answer.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate records the call and delegates to GenerateFunc if set.
func (m *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string, params ai.GenerationParams) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastSystemPrompt = systemPrompt
	m.lastUserPrompt = userPrompt
	m.lastParams = params
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt, params)
	}
	return "mock answer", nil
}

// CallCount returns the number of times Generate was called.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompts returns the system and user prompts of the most recent call.
func (m *Generator) LastPrompts() (systemPrompt, userPrompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystemPrompt, m.lastUserPrompt
}

// LastParams returns the generation params of the most recent call.
func (m *Generator) LastParams() ai.GenerationParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastParams
}

// Reset clears recorded state and injected behavior.
func (m *Generator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastSystemPrompt = ""
	m.lastUserPrompt = ""
	m.lastParams = ai.GenerationParams{}
	m.GenerateFunc = nil
}
