package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// SetCompletionRequest is the body of PUT /api/tasks/{tid}/completion.
type SetCompletionRequest struct {
	Completed *bool `json:"completed"`
}

// DeleteResponse is returned after a successful delete.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskHandler handles task CRUD endpoints.
type TaskHandler struct {
	taskService services.TaskService
	logger      *zap.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService services.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.Named("task-handler"),
	}
}

// RegisterRoutes registers the task handler's routes on the given mux.
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	base := "/api/tasks"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET "+base+"/{tid}", authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("PATCH "+base+"/{tid}", authMiddleware.RequireAuth(scopeMiddleware(h.Update)))
	mux.HandleFunc("DELETE "+base+"/{tid}", authMiddleware.RequireAuth(scopeMiddleware(h.Delete)))
	mux.HandleFunc("PUT "+base+"/{tid}/completion", authMiddleware.RequireAuth(scopeMiddleware(h.SetCompletion)))

	mux.HandleFunc("GET /api/calendar/events", authMiddleware.RequireAuth(scopeMiddleware(h.CalendarEvents)))
}

// List handles GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, tasks); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var input models.TaskInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), ownerID, &input)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{tid}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), ownerID, taskID)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/tasks/{tid}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), ownerID, taskID, &patch)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetCompletion handles PUT /api/tasks/{tid}/completion
func (h *TaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	var req SetCompletionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}
	if req.Completed == nil {
		writeServiceError(w, h.logger, "Task", apperrors.NewValidationError("completed", "completed is required"))
		return
	}

	task, err := h.taskService.SetCompletion(r.Context(), ownerID, taskID, *req.Completed)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{tid}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), ownerID, taskID); err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, DeleteResponse{Deleted: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CalendarEvents handles GET /api/calendar/events
func (h *TaskHandler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	events, err := h.taskService.CalendarEvents(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, "Task", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, events); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
