package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/studysphere/pkg/auth"
)

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// registerSummarizeTool adds summarize_text. It needs an authenticated user
// but no database scope.
func registerSummarizeTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"summarize_text",
		mcp.WithDescription(
			"Summarize academic text into bullet points covering key points, arguments and conclusions. "+
				"The text must be at least 100 characters.",
		),
		mcp.WithString(
			"text",
			mcp.Required(),
			mcp.Description("The text to summarize"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, err := auth.RequireUserID(ctx); err != nil {
			return nil, fmt.Errorf("authentication required")
		}

		text, err := req.RequireString("text")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		summary, err := deps.SummarizeService.Summarize(ctx, text)
		if err != nil {
			return serviceErrorResult("Summary", err)
		}
		return jsonResult(summarizeResponse{Summary: summary})
	})
}
