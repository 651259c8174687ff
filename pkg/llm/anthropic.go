package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicEndpoint is the public Messages API base URL.
const AnthropicEndpoint = "https://api.anthropic.com/v1"

// defaultAnthropicMaxTokens is sent when the caller leaves MaxTokens unset;
// the Messages API requires a value.
const defaultAnthropicMaxTokens = 1024

// AnthropicClient provides access to the Anthropic Messages API.
type AnthropicClient struct {
	client   *anthropic.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = AnthropicEndpoint
	}

	var opts []anthropic.ClientOption
	if endpoint != AnthropicEndpoint {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(endpoint, "/")))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		endpoint: endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm.anthropic"),
	}, nil
}

// GenerateResponse sends a single user turn. JSON mode is not a request
// option here; the prompt carries the format instructions.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error) {
	temperature := float32(req.Temperature)
	prompt := req.Prompt

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", req.Temperature))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   anthropicMaxTokens(req.MaxTokens),
		System:      req.SystemMessage,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err).withContext(c.model, c.endpoint)
	}

	content := extractAnthropicText(resp)
	if content == "" {
		return nil, NewError(ErrorTypeEmpty, "no text content in response", false, nil).withContext(c.model, c.endpoint)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          content,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// StreamChat streams text deltas from the Messages API. System turns in the
// history are folded into the system prompt.
func (c *AnthropicClient) StreamChat(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error {
	start := time.Now()
	system, messages := buildAnthropicMessages(req.SystemPrompt, req.Messages)
	temperature := float32(req.Temperature)

	var streamed int
	_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			MaxTokens:   anthropicMaxTokens(req.MaxTokens),
			System:      system,
			Temperature: &temperature,
			Messages:    messages,
		},
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text == nil || *data.Delta.Text == "" {
				return
			}
			if sendEvent(ctx, eventChan, StreamEvent{Type: StreamEventText, Content: *data.Delta.Text}) == nil {
				streamed += len(*data.Delta.Text)
			}
		},
	})
	if err != nil {
		c.logger.Error("Chat stream failed", zap.Error(err))
		return ClassifyError(err).withContext(c.model, c.endpoint)
	}
	if ctx.Err() != nil {
		return ClassifyError(ctx.Err())
	}

	c.logger.Info("Chat stream completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("content_length", streamed))

	return nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *AnthropicClient) GetEndpoint() string {
	return c.endpoint
}

func anthropicMaxTokens(n int) int {
	if n <= 0 {
		return defaultAnthropicMaxTokens
	}
	return n
}

func extractAnthropicText(resp anthropic.MessagesResponse) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	return sb.String()
}

func buildAnthropicMessages(systemPrompt string, history []Message) (string, []anthropic.Message) {
	systemParts := []string{}
	if systemPrompt != "" {
		systemParts = append(systemParts, systemPrompt)
	}

	messages := make([]anthropic.Message, 0, len(history))
	for _, m := range history {
		text := m.Content
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, text)
		case RoleAssistant:
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: []anthropic.MessageContent{{Type: "text", Text: &text}},
			})
		default:
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: "text", Text: &text}},
			})
		}
	}
	return strings.Join(systemParts, "\n\n"), messages
}
