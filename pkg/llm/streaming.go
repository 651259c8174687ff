package llm

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// StreamChat performs a streaming chat completion, forwarding each text
// delta to eventChan. Cancelling ctx closes the upstream stream.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error {
	start := time.Now()
	messages := buildOpenAIMessages(req.SystemPrompt, req.Messages)

	c.logger.Debug("Starting chat stream",
		zap.String("model", c.model),
		zap.Int("message_count", len(messages)))

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		c.logger.Error("Failed to create stream", zap.Error(err))
		return ClassifyError(err).withContext(c.model, c.endpoint)
	}
	defer stream.Close()

	var streamed int
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.logger.Error("Stream receive error", zap.Error(err))
			return ClassifyError(err).withContext(c.model, c.endpoint)
		}

		if len(response.Choices) == 0 {
			continue
		}

		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		streamed += len(delta)
		if err := sendEvent(ctx, eventChan, StreamEvent{Type: StreamEventText, Content: delta}); err != nil {
			return ClassifyError(err)
		}
	}

	c.logger.Info("Chat stream completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("content_length", streamed))

	return nil
}

func buildOpenAIMessages(systemPrompt string, history []Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return messages
}
