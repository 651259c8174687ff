package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// NoteHandler handles note CRUD endpoints.
type NoteHandler struct {
	noteService services.NoteService
	logger      *zap.Logger
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(noteService services.NoteService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		logger:      logger.Named("note-handler"),
	}
}

// RegisterRoutes registers the note handler's routes on the given mux.
func (h *NoteHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	base := "/api/notes"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET "+base+"/{nid}", authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("PATCH "+base+"/{nid}", authMiddleware.RequireAuth(scopeMiddleware(h.Update)))
	mux.HandleFunc("DELETE "+base+"/{nid}", authMiddleware.RequireAuth(scopeMiddleware(h.Delete)))
}

// List handles GET /api/notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	notes, err := h.noteService.List(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, "Note", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, notes); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var input models.NoteInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	note, err := h.noteService.Create(r.Context(), ownerID, &input)
	if err != nil {
		writeServiceError(w, h.logger, "Note", err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, note); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/notes/{nid}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	noteID, ok := ParseNoteID(w, r, h.logger)
	if !ok {
		return
	}

	note, err := h.noteService.Get(r.Context(), ownerID, noteID)
	if err != nil {
		writeServiceError(w, h.logger, "Note", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, note); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/notes/{nid}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	noteID, ok := ParseNoteID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.NotePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	note, err := h.noteService.Update(r.Context(), ownerID, noteID, &patch)
	if err != nil {
		writeServiceError(w, h.logger, "Note", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, note); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/notes/{nid}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	noteID, ok := ParseNoteID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.noteService.Delete(r.Context(), ownerID, noteID); err != nil {
		writeServiceError(w, h.logger, "Note", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, DeleteResponse{Deleted: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
