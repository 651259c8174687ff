package models

// Chat roles accepted from clients.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// ChatMessage is one turn of a client-held conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatEventType represents the type of a streaming chat event.
type ChatEventType string

const (
	ChatEventText  ChatEventType = "text"
	ChatEventDone  ChatEventType = "done"
	ChatEventError ChatEventType = "error"
)

// ChatEvent represents a streaming event from the chat service.
type ChatEvent struct {
	Type    ChatEventType `json:"type"`
	Content string        `json:"content,omitempty"`
}

// NewTextEvent creates a text streaming event.
func NewTextEvent(content string) ChatEvent {
	return ChatEvent{Type: ChatEventText, Content: content}
}

// NewDoneEvent creates a completion event.
func NewDoneEvent() ChatEvent {
	return ChatEvent{Type: ChatEventDone}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(msg string) ChatEvent {
	return ChatEvent{Type: ChatEventError, Content: msg}
}
