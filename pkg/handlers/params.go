package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
)

// ParseTaskID extracts the task ID from the request path.
// Returns uuid.Nil and false after writing an error response.
// Expects path parameter: tid
func ParseTaskID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "tid", "Task", logger)
}

// ParseNoteID extracts the note ID from the request path.
// Expects path parameter: nid
func ParseNoteID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "nid", "Note", logger)
}

// ParseCourseID extracts the course ID from the request path.
// Expects path parameter: cid
func ParseCourseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "Course", logger)
}

// parseUUID answers a malformed id with the same 404 a missing record gets,
// since no record can have that id.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, resource string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(pathParam))
	if err != nil {
		if err := ErrorResponse(w, http.StatusNotFound, codeNotFound, resource+" not found"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// requireOwner returns the authenticated user id, writing a 401 if absent.
func requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, err := auth.RequireUserID(r.Context())
	if err != nil {
		auth.Unauthorized(w)
		return uuid.Nil, false
	}
	return ownerID, true
}
