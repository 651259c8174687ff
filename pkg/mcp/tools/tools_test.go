package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

func TestRegisterStudyTools_ToolsList(t *testing.T) {
	f := newToolFixture()

	raw, err := json.Marshal(f.server.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	names := make([]string, 0, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
		if tool.Name == "list_tasks" {
			assert.Contains(t, tool.Description, "by due date")
			assert.NotContains(t, tool.Description, "newest first")
		}
	}
	assert.ElementsMatch(t, []string{
		"list_tasks", "create_task", "set_task_completion",
		"list_notes", "create_note",
		"list_courses", "generate_study_plan",
		"summarize_text",
	}, names)
}

func TestListTasks_ScopedToCaller(t *testing.T) {
	f := newToolFixture()
	userID := uuid.New()
	f.tasks.tasks = []*models.Task{
		{ID: uuid.New(), OwnerID: userID, Title: "Read", Completed: true},
		{ID: uuid.New(), OwnerID: userID, Title: "Write"},
	}

	resp := callTool(t, f.server, userContext(userID), "list_tasks", nil)

	require.Nil(t, resp.Error)
	var out listTasksResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, userID, f.tasks.capturedOwner)
	assert.Equal(t, 1, f.scopes.acquired)
	assert.Equal(t, 1, f.scopes.released, "scope must be released")
}

func TestListTasks_CompletedFilter(t *testing.T) {
	f := newToolFixture()
	userID := uuid.New()
	f.tasks.tasks = []*models.Task{
		{ID: uuid.New(), Title: "Read", Completed: true},
		{ID: uuid.New(), Title: "Write"},
	}

	resp := callTool(t, f.server, userContext(userID), "list_tasks", map[string]any{"completed": false})

	var out listTasksResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Write", out.Tasks[0].Title)
}

func TestListTasks_RequiresIdentity(t *testing.T) {
	f := newToolFixture()

	resp := callTool(t, f.server, context.Background(), "list_tasks", nil)

	assert.True(t, resp.Error != nil || resp.Result.IsError, "anonymous call must fail")
	assert.Equal(t, 0, f.scopes.acquired)
}

func TestListTasks_ScopeFailure(t *testing.T) {
	f := newToolFixture()
	f.scopes.err = errors.New("pool exhausted")

	resp := callTool(t, f.server, userContext(uuid.New()), "list_tasks", nil)

	assert.True(t, resp.Error != nil || resp.Result.IsError)
}

func TestCreateTask_PassesArguments(t *testing.T) {
	f := newToolFixture()
	userID := uuid.New()

	resp := callTool(t, f.server, userContext(userID), "create_task", map[string]any{
		"title":    "Revise chapter 3",
		"priority": "High",
		"due_date": "2026-11-02",
	})

	require.False(t, resp.Result.IsError, resp.text(t))
	require.NotNil(t, f.tasks.capturedInput)
	assert.Equal(t, "Revise chapter 3", f.tasks.capturedInput.Title)
	assert.Equal(t, "High", f.tasks.capturedInput.Priority)
	require.NotNil(t, f.tasks.capturedInput.DueDate)
	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), *f.tasks.capturedInput.DueDate)

	var task models.Task
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &task))
	assert.Equal(t, models.PriorityHigh, task.Priority)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	f := newToolFixture()

	resp := callTool(t, f.server, userContext(uuid.New()), "create_task", map[string]any{})

	er := decodeErrorResponse(t, resp)
	assert.Equal(t, "invalid_parameters", er.Code)
	assert.Nil(t, f.tasks.capturedInput)
}

func TestCreateTask_BadDueDate(t *testing.T) {
	f := newToolFixture()

	resp := callTool(t, f.server, userContext(uuid.New()), "create_task", map[string]any{
		"title":    "Essay",
		"due_date": "next tuesday",
	})

	er := decodeErrorResponse(t, resp)
	assert.Equal(t, "invalid_parameters", er.Code)
}

func TestCreateTask_ValidationError(t *testing.T) {
	f := newToolFixture()
	f.tasks.err = apperrors.NewValidationError("title", "title is required")

	resp := callTool(t, f.server, userContext(uuid.New()), "create_task", map[string]any{"title": "  "})

	er := decodeErrorResponse(t, resp)
	assert.Equal(t, "validation_error", er.Code)
	assert.Equal(t, "title is required", er.Message)
}

func TestSetTaskCompletion(t *testing.T) {
	f := newToolFixture()
	taskID := uuid.New()

	resp := callTool(t, f.server, userContext(uuid.New()), "set_task_completion", map[string]any{
		"task_id":   taskID.String(),
		"completed": true,
	})

	require.False(t, resp.Result.IsError, resp.text(t))
	assert.Equal(t, taskID, f.tasks.capturedTaskID)
	assert.True(t, f.tasks.capturedDone)
}

func TestSetTaskCompletion_NotOwnedIsNotFound(t *testing.T) {
	f := newToolFixture()
	f.tasks.err = fmt.Errorf("set completion: %w", apperrors.ErrNotFound)

	resp := callTool(t, f.server, userContext(uuid.New()), "set_task_completion", map[string]any{
		"task_id":   uuid.New().String(),
		"completed": false,
	})

	er := decodeErrorResponse(t, resp)
	assert.Equal(t, "not_found", er.Code)
	assert.Equal(t, "Task not found", er.Message)
}

func TestSetTaskCompletion_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing id", map[string]any{"completed": true}},
		{"malformed id", map[string]any{"task_id": "abc", "completed": true}},
		{"missing completed", map[string]any{"task_id": uuid.New().String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newToolFixture()
			resp := callTool(t, f.server, userContext(uuid.New()), "set_task_completion", tt.args)

			er := decodeErrorResponse(t, resp)
			assert.Equal(t, "invalid_parameters", er.Code)
			assert.Equal(t, uuid.Nil, f.tasks.capturedTaskID)
		})
	}
}

func TestListNotes_TagFilter(t *testing.T) {
	f := newToolFixture()
	f.notes.notes = []*models.Note{
		{ID: uuid.New(), Title: "Cells", Tags: []string{"biology"}},
		{ID: uuid.New(), Title: "Vectors", Tags: []string{"math"}},
	}

	resp := callTool(t, f.server, userContext(uuid.New()), "list_notes", map[string]any{"tag": "math"})

	var out listNotesResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Vectors", out.Notes[0].Title)
}

func TestCreateNote_Tags(t *testing.T) {
	f := newToolFixture()

	resp := callTool(t, f.server, userContext(uuid.New()), "create_note", map[string]any{
		"title":   "Lecture 4",
		"content": "Mitosis",
		"tags":    []any{"biology", 7, "exam"},
	})

	require.False(t, resp.Result.IsError, resp.text(t))
	require.NotNil(t, f.notes.capturedInput)
	assert.Equal(t, []string{"biology", "exam"}, f.notes.capturedInput.Tags)
	assert.Equal(t, "Mitosis", f.notes.capturedInput.Content)
}

func TestListCourses(t *testing.T) {
	f := newToolFixture()
	f.courses.courses = []*models.Course{{ID: uuid.New(), Name: "Biology 101"}}

	resp := callTool(t, f.server, userContext(uuid.New()), "list_courses", nil)

	var out listCoursesResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	assert.Equal(t, 1, out.Count)
}

func TestGenerateStudyPlan(t *testing.T) {
	f := newToolFixture()
	courseID := uuid.New()
	f.plans.result = &models.PlanResult{Message: models.PlanSuccessMessage, TaskCount: 3, Proposed: 4}

	resp := callTool(t, f.server, userContext(uuid.New()), "generate_study_plan", map[string]any{
		"course_id": courseID.String(),
		"goal":      "Pass the final",
		"weeks":     6,
	})

	require.False(t, resp.Result.IsError, resp.text(t))
	assert.Equal(t, courseID, f.plans.capturedCourse)
	assert.Equal(t, &models.PlanRequest{Goal: "Pass the final", Weeks: 6}, f.plans.capturedRequest)

	var out generatePlanResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	assert.Equal(t, 3, out.TaskCount)
	assert.Equal(t, "Created 3 tasks", out.Summary)
}

func TestGenerateStudyPlan_DefaultWeeks(t *testing.T) {
	f := newToolFixture()
	f.plans.result = &models.PlanResult{Message: models.PlanSuccessMessage, TaskCount: 1}

	callTool(t, f.server, userContext(uuid.New()), "generate_study_plan", map[string]any{
		"course_id": uuid.New().String(),
		"goal":      "Understand genetics",
	})

	require.NotNil(t, f.plans.capturedRequest)
	assert.Equal(t, defaultPlanWeeks, f.plans.capturedRequest.Weeks)
}

func TestGenerateStudyPlan_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no material", apperrors.ErrNoMaterial, "no_material"},
		{"model unavailable", fmt.Errorf("plan: %w", apperrors.ErrModelUnavailable), "model_unavailable"},
		{"malformed", apperrors.ErrMalformedResponse, "malformed_response"},
		{"course not owned", apperrors.ErrNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newToolFixture()
			f.plans.err = tt.err

			resp := callTool(t, f.server, userContext(uuid.New()), "generate_study_plan", map[string]any{
				"course_id": uuid.New().String(),
				"goal":      "Pass",
			})

			er := decodeErrorResponse(t, resp)
			assert.Equal(t, tt.code, er.Code)
		})
	}
}

func TestGenerateStudyPlan_StoreFailureIsProtocolError(t *testing.T) {
	f := newToolFixture()
	f.plans.err = apperrors.ErrStoreFailure

	resp := callTool(t, f.server, userContext(uuid.New()), "generate_study_plan", map[string]any{
		"course_id": uuid.New().String(),
		"goal":      "Pass",
	})

	assert.True(t, resp.Error != nil || resp.Result.IsError)
}

func TestSummarizeText(t *testing.T) {
	f := newToolFixture()
	f.summaries.summary = "- point one"
	text := strings.Repeat("photosynthesis ", 10)

	resp := callTool(t, f.server, userContext(uuid.New()), "summarize_text", map[string]any{"text": text})

	require.False(t, resp.Result.IsError, resp.text(t))
	assert.Equal(t, text, f.summaries.capturedText)
	assert.Equal(t, 0, f.scopes.acquired, "summarize does not touch the database")

	var out summarizeResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &out))
	assert.Equal(t, "- point one", out.Summary)
}

func TestSummarizeText_TooShort(t *testing.T) {
	f := newToolFixture()
	f.summaries.err = &apperrors.TooShortError{MinChars: 100}

	resp := callTool(t, f.server, userContext(uuid.New()), "summarize_text", map[string]any{"text": "short"})

	er := decodeErrorResponse(t, resp)
	assert.Equal(t, "text_too_short", er.Code)
	assert.Equal(t, "Please provide at least 100 characters of text to summarize.", er.Message)
}

func TestHealthTool(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(s, `1.2.3-beta"x`)

	resp := callTool(t, s, context.Background(), "health", nil)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "studysphere", health.Service)
	assert.Equal(t, `1.2.3-beta"x`, health.Version)
}
