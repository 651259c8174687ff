package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing model-backed services.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error)

	// StreamChatFunc is called when StreamChat is invoked.
	// If nil, each entry of StreamDeltas is sent as a text event.
	StreamChatFunc func(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error
	StreamDeltas   []string

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu sync.Mutex
	// Call tracking for verification
	GenerateResponseCalls int
	StreamChatCalls       int
	LastCompletion        *CompletionRequest
	LastChat              *ChatRequest
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// NewMockLLMClientWithResponse returns a mock whose completions return content.
func NewMockLLMClientWithResponse(content string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateResponseFunc = func(context.Context, *CompletionRequest) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: content}, nil
	}
	return m
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.GenerateResponseCalls++
	m.LastCompletion = req
	fn := m.GenerateResponseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &GenerateResponseResult{}, nil
}

// StreamChat implements LLMClient.
func (m *MockLLMClient) StreamChat(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error {
	m.mu.Lock()
	m.StreamChatCalls++
	m.LastChat = req
	fn := m.StreamChatFunc
	deltas := m.StreamDeltas
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req, eventChan)
	}
	for _, d := range deltas {
		if err := sendEvent(ctx, eventChan, StreamEvent{Type: StreamEventText, Content: d}); err != nil {
			return err
		}
	}
	return nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Calls returns the completion and stream call counts.
func (m *MockLLMClient) Calls() (generate, stream int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateResponseCalls, m.StreamChatCalls
}

// Reset clears call tracking counters.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseCalls = 0
	m.StreamChatCalls = 0
	m.LastCompletion = nil
	m.LastChat = nil
}
