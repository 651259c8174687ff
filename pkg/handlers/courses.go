package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// CourseHandler handles courses, their materials and study plan generation.
type CourseHandler struct {
	courseService services.CourseService
	planService   services.PlanService
	logger        *zap.Logger
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService services.CourseService, planService services.PlanService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		planService:   planService,
		logger:        logger.Named("course-handler"),
	}
}

// RegisterRoutes registers the course handler's routes on the given mux.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	base := "/api/courses"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(scopeMiddleware(h.List)))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(scopeMiddleware(h.Create)))
	mux.HandleFunc("GET "+base+"/{cid}", authMiddleware.RequireAuth(scopeMiddleware(h.Get)))
	mux.HandleFunc("POST "+base+"/{cid}/materials", authMiddleware.RequireAuth(scopeMiddleware(h.AddMaterial)))
	mux.HandleFunc("POST "+base+"/{cid}/plan", authMiddleware.RequireAuth(scopeMiddleware(h.GeneratePlan)))
}

// List handles GET /api/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	courses, err := h.courseService.List(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, "Course", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, courses); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var input models.CourseInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	course, err := h.courseService.Create(r.Context(), ownerID, &input)
	if err != nil {
		writeServiceError(w, h.logger, "Course", err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, course); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/courses/{cid}
// The course is returned with its materials.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	courseID, ok := ParseCourseID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.courseService.Get(r.Context(), ownerID, courseID)
	if err != nil {
		writeServiceError(w, h.logger, "Course", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, detail); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddMaterial handles POST /api/courses/{cid}/materials
func (h *CourseHandler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	courseID, ok := ParseCourseID(w, r, h.logger)
	if !ok {
		return
	}

	var input models.MaterialInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	material, err := h.courseService.AddMaterial(r.Context(), ownerID, courseID, &input)
	if err != nil {
		writeServiceError(w, h.logger, "Course", err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, material); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GeneratePlan handles POST /api/courses/{cid}/plan
// The model call can take tens of seconds; the request blocks until the
// generated tasks are stored.
func (h *CourseHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	courseID, ok := ParseCourseID(w, r, h.logger)
	if !ok {
		return
	}

	var req models.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	result, err := h.planService.Generate(r.Context(), ownerID, courseID, &req)
	if err != nil {
		writeServiceError(w, h.logger, "Course", err)
		return
	}

	h.logger.Info("Study plan generated",
		zap.String("course_id", courseID.String()),
		zap.Int("task_count", result.TaskCount))

	if err := WriteSuccess(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
