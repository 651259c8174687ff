package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/models"
)

func registerTaskTools(s *server.MCPServer, deps *ToolDeps) {
	registerListTasksTool(s, deps)
	registerCreateTaskTool(s, deps)
	registerSetTaskCompletionTool(s, deps)
}

type listTasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Count int            `json:"count"`
}

func registerListTasksTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_tasks",
		mcp.WithDescription(
			"List the user's study tasks by due date, soonest first, with undated tasks last "+
				"and ties in creation order. "+
				"Pass completed=true or completed=false to filter by status.",
		),
		mcp.WithBoolean(
			"completed",
			mcp.Description("Only return tasks with this completion status"),
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

		tasks, err := deps.TaskService.List(scopedCtx, ownerID)
		if err != nil {
			return serviceErrorResult("Task", err)
		}

		if completed, ok := getOptionalBool(req, "completed"); ok {
			filtered := make([]*models.Task, 0, len(tasks))
			for _, t := range tasks {
				if t.Completed == completed {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}

		return jsonResult(listTasksResponse{Tasks: tasks, Count: len(tasks)})
	})
}

func registerCreateTaskTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"create_task",
		mcp.WithDescription("Create a study task for the user."),
		mcp.WithString(
			"title",
			mcp.Required(),
			mcp.Description("Short description of the work"),
		),
		mcp.WithString(
			"description",
			mcp.Description("Optional details"),
		),
		mcp.WithString(
			"due_date",
			mcp.Description("Optional due date, YYYY-MM-DD or RFC 3339"),
		),
		mcp.WithString(
			"priority",
			mcp.Description("low, medium or high (default medium)"),
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
		dueDate, err := models.ParseDueDate(getOptionalString(req, "due_date"))
		if err != nil {
			return NewErrorResult("invalid_parameters", "due_date must be YYYY-MM-DD or an RFC 3339 timestamp"), nil
		}

		ownerID, scopedCtx, cleanup, err := acquireOwner(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		task, err := deps.TaskService.Create(scopedCtx, ownerID, &models.TaskInput{
			Title:       title,
			Description: getOptionalString(req, "description"),
			DueDate:     dueDate,
			Priority:    getOptionalString(req, "priority"),
		})
		if err != nil {
			return serviceErrorResult("Task", err)
		}

		deps.Logger.Debug("Task created via MCP", zap.String("task_id", task.ID.String()))
		return jsonResult(task)
	})
}

func registerSetTaskCompletionTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"set_task_completion",
		mcp.WithDescription("Mark a task as completed or not completed. Setting the current value again is a no-op."),
		mcp.WithString(
			"task_id",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithBoolean(
			"completed",
			mcp.Required(),
			mcp.Description("The new completion status"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := parseUUIDArg(req, "task_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		completed, ok := getOptionalBool(req, "completed")
		if !ok {
			return NewErrorResult("invalid_parameters", "completed is required"), nil
		}

		ownerID, scopedCtx, cleanup, err := acquireOwner(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		task, err := deps.TaskService.SetCompletion(scopedCtx, ownerID, taskID, completed)
		if err != nil {
			return serviceErrorResult("Task", err)
		}
		return jsonResult(task)
	})
}
