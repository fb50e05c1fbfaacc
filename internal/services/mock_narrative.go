package services

import (
	"context"
	"sync"
)

// MockNarrative is a NarrativeService test double. Tests may set GenerateFunc
// to script responses; the default returns a canned narration.
type MockNarrative struct {
	GenerateFunc func(ctx context.Context, prompt string, recentContext []string) (string, error)
	PingFunc     func(ctx context.Context) error

	// Call tracking for assertions.
	GenerateCalls []GenerateCall

	mu sync.Mutex
}

// GenerateCall records one Generate invocation.
type GenerateCall struct {
	Prompt        string
	RecentContext []string
}

var _ NarrativeService = (*MockNarrative)(nil)

// NewMockNarrative creates a mock narrative service.
func NewMockNarrative() *MockNarrative {
	return &MockNarrative{}
}

func (m *MockNarrative) Generate(ctx context.Context, prompt string, recentContext []string) (string, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{Prompt: prompt, RecentContext: recentContext})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, recentContext)
	}
	return `{"description":"The moment passes, and the cathedral's silence settles back around you."}`, nil
}

func (m *MockNarrative) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// CallCount returns how many times Generate was invoked.
func (m *MockNarrative) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}
