package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// defaultPlanWeeks is used when generate_study_plan is called without weeks.
const defaultPlanWeeks = 4

func registerCourseTools(s *server.MCPServer, deps *ToolDeps) {
	registerListCoursesTool(s, deps)
	registerGenerateStudyPlanTool(s, deps)
}

type listCoursesResponse struct {
	Courses []*models.Course `json:"courses"`
	Count   int              `json:"count"`
}

type generatePlanResponse struct {
	Message   string `json:"message"`
	TaskCount int    `json:"task_count"`
	Summary   string `json:"summary"`
}

func registerListCoursesTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_courses",
		mcp.WithDescription(
			"List the user's courses. Use a course id with generate_study_plan.",
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

		courses, err := deps.CourseService.List(scopedCtx, ownerID)
		if err != nil {
			return serviceErrorResult("Course", err)
		}
		return jsonResult(listCoursesResponse{Courses: courses, Count: len(courses)})
	})
}

func registerGenerateStudyPlanTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"generate_study_plan",
		mcp.WithDescription(
			"Generate study tasks for a course from its uploaded materials. "+
				"The created tasks are added to the user's task list. "+
				"Fails with no_material if the course has no materials yet.",
		),
		mcp.WithString(
			"course_id",
			mcp.Required(),
			mcp.Description("ID of the course (see list_courses)"),
		),
		mcp.WithString(
			"goal",
			mcp.Required(),
			mcp.Description("What the user wants to achieve, e.g. 'Pass the final exam'"),
		),
		mcp.WithNumber(
			"weeks",
			mcp.Description("Timeframe in weeks, 1-52 (default 4)"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		courseID, err := parseUUIDArg(req, "course_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		goal, err := req.RequireString("goal")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		weeks := defaultPlanWeeks
		if w, ok := getOptionalFloat(req, "weeks"); ok {
			weeks = int(w)
		}

		ownerID, scopedCtx, cleanup, err := acquireOwner(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		result, err := deps.PlanService.Generate(scopedCtx, ownerID, courseID, &models.PlanRequest{
			Goal:  goal,
			Weeks: weeks,
		})
		if err != nil {
			return serviceErrorResult("Course", err)
		}

		deps.Logger.Info("Study plan generated via MCP",
			zap.String("course_id", courseID.String()),
			zap.Int("task_count", result.TaskCount))

		return jsonResult(generatePlanResponse{
			Message:   result.Message,
			TaskCount: result.TaskCount,
			Summary:   "Created " + services.FormatCount(result.TaskCount, "task"),
		})
	})
}
