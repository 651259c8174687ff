package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/logging"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

const chatPersona = `You are StudySphere AI, a friendly and knowledgeable academic assistant. Your purpose is to help students understand complex topics.
- Explain concepts clearly and concisely.
- Use examples, analogies, or bullet points to break down information.
- If a question is ambiguous, ask for clarification.
- Do not answer questions outside of academic or educational contexts. If the user asks about something non-educational, politely decline and steer the conversation back to learning.
- Format your responses using Markdown for better readability (e.g., use **bold** for key terms, lists for steps).`

// chatErrorMessage is sent to clients in place of adapter detail.
const chatErrorMessage = "An error occurred with the AI service."

// chatEventBuffer bounds how far the model may run ahead of a slow client.
const chatEventBuffer = 32

// ChatService answers a client-held conversation. It keeps no state between calls.
type ChatService interface {
	// PrepareHistory filters history to user and assistant turns with content.
	// An empty result is a ValidationError on "messages".
	PrepareHistory(history []models.ChatMessage) ([]llm.Message, error)

	// Start opens the model stream and waits for its first text delta. A
	// failure before that delta is returned as ErrModelUnavailable and no
	// channel is produced. Otherwise the channel carries text events followed
	// by exactly one done or error event, then closes. Callers must have
	// validated the history with PrepareHistory.
	Start(ctx context.Context, history []llm.Message) (<-chan models.ChatEvent, error)
}

type chatService struct {
	llmClient   llm.LLMClient
	temperature float64
	logger      *zap.Logger
}

// NewChatService creates a chat service.
func NewChatService(llmClient llm.LLMClient, temperature float64, logger *zap.Logger) ChatService {
	return &chatService{
		llmClient:   llmClient,
		temperature: temperature,
		logger:      logger.Named("chat"),
	}
}

var _ ChatService = (*chatService)(nil)

func (s *chatService) PrepareHistory(history []models.ChatMessage) ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != models.ChatRoleUser && role != models.ChatRoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	if len(out) == 0 {
		return nil, apperrors.NewValidationError("messages", "at least one user or assistant message with content is required")
	}
	return out, nil
}

func (s *chatService) Start(ctx context.Context, history []llm.Message) (<-chan models.ChatEvent, error) {
	deltas := make(chan llm.StreamEvent)
	done := make(chan error, 1)

	go func() {
		defer close(deltas)
		done <- s.llmClient.StreamChat(llm.WithOperation(ctx, llm.OperationChat), &llm.ChatRequest{
			SystemPrompt: chatPersona,
			Messages:     history,
			Temperature:  s.temperature,
		}, deltas)
	}()

	first, ok := nextText(deltas)
	if !ok {
		// The stream ended without producing any text.
		if err := <-done; err != nil {
			s.logger.Error("Chat stream failed to open", zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("%w: %w", apperrors.ErrModelUnavailable, err)
		}
		events := make(chan models.ChatEvent, 1)
		events <- models.NewDoneEvent()
		close(events)
		return events, nil
	}

	events := make(chan models.ChatEvent, chatEventBuffer)
	go s.relay(ctx, first, deltas, done, events)
	return events, nil
}

// relay forwards the remaining deltas and the terminal event, then closes events.
func (s *chatService) relay(ctx context.Context, first llm.StreamEvent, deltas <-chan llm.StreamEvent, done <-chan error, events chan<- models.ChatEvent) {
	defer close(events)

	s.send(ctx, events, models.NewTextEvent(first.Content))
	for ev := range deltas {
		if ev.Type != llm.StreamEventText {
			continue
		}
		s.send(ctx, events, models.NewTextEvent(ev.Content))
	}

	err := <-done
	if ctx.Err() != nil {
		// Client went away; nobody is listening for the terminal event.
		s.logger.Debug("Chat stream abandoned by client")
		return
	}
	if err != nil {
		s.logger.Error("Chat stream failed", zap.String("error", logging.SanitizeError(err)))
		s.send(ctx, events, models.NewErrorEvent(chatErrorMessage))
		return
	}
	s.send(ctx, events, models.NewDoneEvent())
}

// nextText returns the next text delta, or false once deltas is closed.
func nextText(deltas <-chan llm.StreamEvent) (llm.StreamEvent, bool) {
	for ev := range deltas {
		if ev.Type == llm.StreamEventText {
			return ev, true
		}
	}
	return llm.StreamEvent{}, false
}

func (s *chatService) send(ctx context.Context, events chan<- models.ChatEvent, ev models.ChatEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
