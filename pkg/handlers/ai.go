package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// SummarizeRequest is the body of POST /api/ai/summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// ChatRequest is the body of POST /api/ai/chat.
type ChatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

// AIHandler handles the stateless AI endpoints. None of them touch the
// database, so they run without a scoped connection.
type AIHandler struct {
	summarizeService services.SummarizeService
	chatService      services.ChatService
	logger           *zap.Logger
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(summarizeService services.SummarizeService, chatService services.ChatService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		summarizeService: summarizeService,
		chatService:      chatService,
		logger:           logger.Named("ai-handler"),
	}
}

// RegisterRoutes registers the AI handler's routes on the given mux.
func (h *AIHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/ai/summarize", authMiddleware.RequireAuth(h.Summarize))
	mux.HandleFunc("POST /api/ai/chat", authMiddleware.RequireAuth(h.Chat))
}

// Summarize handles POST /api/ai/summarize
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	summary, err := h.summarizeService.Summarize(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, h.logger, "Summary", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, SummarizeResponse{Summary: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Chat handles POST /api/ai/chat
// Replies are streamed as server-sent events: text events followed by a
// single done or error event. The response only switches to SSE once the
// model has produced its first delta; earlier failures get a JSON error.
// A client disconnect cancels the model stream.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	history, err := h.chatService.PrepareHistory(req.Messages)
	if err != nil {
		writeServiceError(w, h.logger, "Chat", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("SSE not supported")
		if err := ErrorResponse(w, http.StatusInternalServerError, "sse_unsupported", "SSE not supported"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	events, err := h.chatService.Start(r.Context(), history)
	if err != nil {
		writeServiceError(w, h.logger, "Chat", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("Failed to marshal event", zap.Error(err))
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			h.logger.Debug("Chat client disconnected", zap.Error(err))
			return
		}
		flusher.Flush()

		if event.Type == models.ChatEventDone || event.Type == models.ChatEventError {
			return
		}
	}
}
