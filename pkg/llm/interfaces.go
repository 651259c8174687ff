// Package llm adapts generative model providers (OpenAI-compatible and
// Anthropic) behind a single client interface.
package llm

import (
	"context"
)

// LLMClient defines the interface for generative model operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse runs a single non-streaming completion.
	GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error)

	// StreamChat streams assistant text deltas for a conversation to eventChan
	// as StreamEventText events. It neither closes eventChan nor sends done or
	// error events; the caller owns the channel and the terminal event.
	StreamChat(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// CompletionRequest is a single prompt/response exchange.
type CompletionRequest struct {
	SystemMessage string
	Prompt        string
	Temperature   float64
	MaxTokens     int // 0 leaves the provider default
	// JSONMode asks the provider to constrain output to a JSON object where supported.
	JSONMode bool
}

// GenerateResponseResult contains the response content and token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatRequest is a multi-turn streaming request.
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	Temperature  float64
	MaxTokens    int
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StreamEventType defines types of streaming events.
type StreamEventType string

const (
	StreamEventText  StreamEventType = "text"
	StreamEventDone  StreamEventType = "done"
	StreamEventError StreamEventType = "error"
)

// StreamEvent represents a streaming event from the model.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Content string          `json:"content,omitempty"`
}

// Compile-time interface checks.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*ResilientClient)(nil)
	_ LLMClient = (*MockLLMClient)(nil)
)

// sendEvent delivers ev unless ctx is done first.
func sendEvent(ctx context.Context, eventChan chan<- StreamEvent, ev StreamEvent) error {
	select {
	case eventChan <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
