package tools

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/studysphere/pkg/models"
)

func registerNoteTools(s *server.MCPServer, deps *ToolDeps) {
	registerListNotesTool(s, deps)
	registerCreateNoteTool(s, deps)
}

type listNotesResponse struct {
	Notes []*models.Note `json:"notes"`
	Count int            `json:"count"`
}

func registerListNotesTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_notes",
		mcp.WithDescription("List the user's study notes, newest first. Optionally filter by tag."),
		mcp.WithString(
			"tag",
			mcp.Description("Only return notes carrying this tag (exact match)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ownerID, scopedCtx, cleanup, err := acquireOwner(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		notes, err := deps.NoteService.List(scopedCtx, ownerID)
		if err != nil {
			return serviceErrorResult("Note", err)
		}

		if tag := getOptionalString(req, "tag"); tag != "" {
			filtered := make([]*models.Note, 0, len(notes))
			for _, n := range notes {
				if slices.Contains(n.Tags, tag) {
					filtered = append(filtered, n)
				}
			}
			notes = filtered
		}

		return jsonResult(listNotesResponse{Notes: notes, Count: len(notes)})
	})
}

func registerCreateNoteTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"create_note",
		mcp.WithDescription("Create a study note for the user."),
		mcp.WithString(
			"title",
			mcp.Required(),
			mcp.Description("Note title"),
		),
		mcp.WithString(
			"content",
			mcp.Description("Note body (Markdown)"),
		),
		mcp.WithArray(
			"tags",
			mcp.Description("Optional array of tag strings"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		ownerID, scopedCtx, cleanup, err := acquireOwner(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		note, err := deps.NoteService.Create(scopedCtx, ownerID, &models.NoteInput{
			Title:   title,
			Content: getOptionalString(req, "content"),
			Tags:    getStringSlice(req, "tags"),
		})
		if err != nil {
			return serviceErrorResult("Note", err)
		}
		return jsonResult(note)
	})
}
