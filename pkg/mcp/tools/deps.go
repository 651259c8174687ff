// Package tools provides MCP tool implementations for studysphere.
package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// ScopeProvider attaches a pooled database connection to a context.
type ScopeProvider interface {
	WithScope(ctx context.Context) (context.Context, func(), error)
}

// ToolDeps contains dependencies for the study tools.
type ToolDeps struct {
	Scopes           ScopeProvider
	TaskService      services.TaskService
	NoteService      services.NoteService
	CourseService    services.CourseService
	PlanService      services.PlanService
	SummarizeService services.SummarizeService
	Logger           *zap.Logger
}

// RegisterStudyTools registers every study tool on the server.
func RegisterStudyTools(s *server.MCPServer, deps *ToolDeps) {
	registerTaskTools(s, deps)
	registerNoteTools(s, deps)
	registerCourseTools(s, deps)
	registerSummarizeTool(s, deps)
}

// acquireOwner resolves the calling user and a context carrying a database
// scope. The cleanup function must be called when the tool returns.
func acquireOwner(ctx context.Context, deps *ToolDeps) (uuid.UUID, context.Context, func(), error) {
	ownerID, err := auth.RequireUserID(ctx)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("authentication required")
	}

	if deps.Scopes == nil {
		return ownerID, ctx, func() {}, nil
	}

	scopedCtx, cleanup, err := deps.Scopes.WithScope(ctx)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return ownerID, scopedCtx, cleanup, nil
}
