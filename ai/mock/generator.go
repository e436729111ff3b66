package mock

import (
	"context"
	"sync"
)

// GenerateCall records the arguments of a single Generate call.
type GenerateCall struct {
	Instruction string
	Context     string
	Question    string
}

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns Answer.
	GenerateFunc func(ctx context.Context, instruction, contextText, question string) (string, error)

	// Answer is returned by the default behavior.
	Answer string

	mu    sync.Mutex
	calls []GenerateCall
}

// NewMockGenerator creates a mock generator that always returns answer.
func NewMockGenerator(answer string) *MockGenerator {
	return &MockGenerator{Answer: answer}
}

// Generate records the call and returns the configured answer.
func (m *MockGenerator) Generate(ctx context.Context, instruction, contextText, question string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{Instruction: instruction, Context: contextText, Question: question})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, instruction, contextText, question)
	}
	return m.Answer, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call, or false if there were none.
func (m *MockGenerator) LastCall() (GenerateCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return GenerateCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and custom behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
}
