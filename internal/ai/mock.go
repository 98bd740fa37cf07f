package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response string
	// Responses, when set, are returned one per call before falling back to Response.
	Responses   []string
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection

	mu    sync.Mutex
	calls int
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRequest = &req
	m.calls++
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}

	content := m.Response
	if len(m.Responses) > 0 {
		content = m.Responses[0]
		m.Responses = m.Responses[1:]
	}
	return CompletionResponse{
		Content:      content,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(content),
		Structured:   req.ResponseFormat == FormatJSON,
	}, nil
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
