package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as successful tool results so the agent
// sees the detail instead of a bare protocol failure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the agent can act on (bad arguments, unknown ids).
// System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceErrorResult converts a service error into a tool result when the
// agent can act on it. Anything else comes back as a Go error.
func serviceErrorResult(resource string, err error) (*mcp.CallToolResult, error) {
	if vErr, ok := apperrors.AsValidationError(err); ok {
		return NewErrorResult("validation_error", vErr.Message), nil
	}

	var tooShort *apperrors.TooShortError
	switch {
	case errors.As(err, &tooShort):
		return NewErrorResult("text_too_short",
			fmt.Sprintf("Please provide at least %d characters of text to summarize.", tooShort.MinChars)), nil
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrForbidden):
		return NewErrorResult("not_found", resource+" not found"), nil
	case errors.Is(err, apperrors.ErrNoMaterial):
		return NewErrorResult("no_material",
			"No materials found for this course. Please upload a syllabus or notes first."), nil
	case errors.Is(err, apperrors.ErrModelUnavailable):
		return NewErrorResult("model_unavailable", "The AI service is currently unavailable. Try again later."), nil
	case errors.Is(err, apperrors.ErrMalformedResponse):
		return NewErrorResult("malformed_response", "The AI returned an unexpected response. Try again."), nil
	}
	return nil, err
}
