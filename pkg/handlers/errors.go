package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/logging"
)

// Error codes written to clients.
const (
	codeValidation        = "validation_error"
	codeInvalidRequest    = "invalid_request"
	codeNoMaterial        = "no_material"
	codeTextTooShort      = "text_too_short"
	codeUnauthorized      = "unauthorized"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeModelUnavailable  = "model_unavailable"
	codeMalformedResponse = "malformed_response"
	codeInternal          = "internal_error"
)

const (
	msgNoMaterial        = "No materials found for this course. Please upload a syllabus or notes first."
	msgUnauthorized      = "Authentication required"
	msgModelUnavailable  = "The AI service is currently unavailable. Please try again later."
	msgMalformedResponse = "The AI returned an unexpected response. Please try again."
	msgInternal          = "An internal error occurred"
	msgConflict          = "An account with this email already exists"
)

// writeServiceError maps a service error onto the HTTP error taxonomy.
// resource names the record type for not-found messages ("Task", "Note").
// Internal detail is logged, never written to the client.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, resource string, err error) {
	status, code, message := classifyServiceError(resource, err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("error_code", code),
			zap.String("error", logging.SanitizeError(err)))
	}

	if werr := ErrorResponse(w, status, code, message); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}

func classifyServiceError(resource string, err error) (int, string, string) {
	if vErr, ok := apperrors.AsValidationError(err); ok {
		return http.StatusBadRequest, codeValidation, vErr.Message
	}

	var tooShort *apperrors.TooShortError
	switch {
	case errors.As(err, &tooShort):
		return http.StatusBadRequest, codeTextTooShort,
			fmt.Sprintf("Please provide at least %d characters of text to summarize.", tooShort.MinChars)
	case errors.Is(err, apperrors.ErrNoMaterial):
		return http.StatusBadRequest, codeNoMaterial, msgNoMaterial
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, codeUnauthorized, msgUnauthorized
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrForbidden):
		return http.StatusNotFound, codeNotFound, resource + " not found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, codeConflict, msgConflict
	case errors.Is(err, apperrors.ErrModelUnavailable):
		return http.StatusInternalServerError, codeModelUnavailable, msgModelUnavailable
	case errors.Is(err, apperrors.ErrMalformedResponse):
		return http.StatusInternalServerError, codeMalformedResponse, msgMalformedResponse
	default:
		return http.StatusInternalServerError, codeInternal, msgInternal
	}
}

// writeBadRequest reports an undecodable request body. Field-level decode
// failures are reported as validation errors naming the field.
func writeBadRequest(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Rejected request body", zap.Error(err))
	if _, ok := apperrors.AsValidationError(err); ok {
		writeServiceError(w, logger, "Request", err)
		return
	}
	if werr := ErrorResponse(w, http.StatusBadRequest, codeInvalidRequest, "Request body must be a valid JSON object"); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}
