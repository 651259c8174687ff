package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

type mockTaskService struct {
	tasks          []*models.Task
	err            error
	capturedOwner  uuid.UUID
	capturedInput  *models.TaskInput
	capturedTaskID uuid.UUID
	capturedDone   bool
}

func (m *mockTaskService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	m.capturedOwner = ownerID
	return m.tasks, m.err
}

func (m *mockTaskService) Create(ctx context.Context, ownerID uuid.UUID, input *models.TaskInput) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: uuid.New(), OwnerID: ownerID, Title: input.Title, Priority: models.CoercePriority(input.Priority)}, nil
}

func (m *mockTaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockTaskService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockTaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return apperrors.ErrNotFound
}

func (m *mockTaskService) SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedTaskID = id
	m.capturedDone = completed
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: id, OwnerID: ownerID, Completed: completed}, nil
}

func (m *mockTaskService) CalendarEvents(ctx context.Context, ownerID uuid.UUID) ([]*models.CalendarEvent, error) {
	return []*models.CalendarEvent{}, nil
}

type mockNoteService struct {
	notes         []*models.Note
	err           error
	capturedInput *models.NoteInput
}

func (m *mockNoteService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	return m.notes, m.err
}

func (m *mockNoteService) Create(ctx context.Context, ownerID uuid.UUID, input *models.NoteInput) (*models.Note, error) {
	m.capturedInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Note{ID: uuid.New(), OwnerID: ownerID, Title: input.Title, Tags: models.NormalizeTags(input.Tags)}, nil
}

func (m *mockNoteService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockNoteService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.NotePatch) (*models.Note, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockNoteService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return apperrors.ErrNotFound
}

type mockCourseService struct {
	courses []*models.Course
	err     error
}

func (m *mockCourseService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) Create(ctx context.Context, ownerID uuid.UUID, input *models.CourseInput) (*models.Course, error) {
	return nil, m.err
}

func (m *mockCourseService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.CourseDetail, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockCourseService) AddMaterial(ctx context.Context, ownerID, courseID uuid.UUID, input *models.MaterialInput) (*models.Material, error) {
	return nil, apperrors.ErrNotFound
}

type mockPlanService struct {
	result          *models.PlanResult
	err             error
	capturedCourse  uuid.UUID
	capturedRequest *models.PlanRequest
}

func (m *mockPlanService) Generate(ctx context.Context, ownerID, courseID uuid.UUID, req *models.PlanRequest) (*models.PlanResult, error) {
	m.capturedCourse = courseID
	m.capturedRequest = req
	return m.result, m.err
}

type mockSummarizeService struct {
	summary      string
	err          error
	capturedText string
}

func (m *mockSummarizeService) Summarize(ctx context.Context, text string) (string, error) {
	m.capturedText = text
	return m.summary, m.err
}

type mockScopeProvider struct {
	err      error
	acquired int
	released int
}

func (m *mockScopeProvider) WithScope(ctx context.Context) (context.Context, func(), error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.acquired++
	return ctx, func() { m.released++ }, nil
}

type toolFixture struct {
	server    *server.MCPServer
	scopes    *mockScopeProvider
	tasks     *mockTaskService
	notes     *mockNoteService
	courses   *mockCourseService
	plans     *mockPlanService
	summaries *mockSummarizeService
}

func newToolFixture() *toolFixture {
	f := &toolFixture{
		server:    server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true)),
		scopes:    &mockScopeProvider{},
		tasks:     &mockTaskService{},
		notes:     &mockNoteService{},
		courses:   &mockCourseService{},
		plans:     &mockPlanService{},
		summaries: &mockSummarizeService{},
	}
	RegisterStudyTools(f.server, &ToolDeps{
		Scopes:           f.scopes,
		TaskService:      f.tasks,
		NoteService:      f.notes,
		CourseService:    f.courses,
		PlanService:      f.plans,
		SummarizeService: f.summaries,
		Logger:           zap.NewNop(),
	})
	return f
}

func userContext(userID uuid.UUID) context.Context {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	return auth.WithClaims(context.Background(), claims, "token")
}

// toolResponse is the decoded JSON-RPC reply to a tools/call.
type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r toolResponse) text(t *testing.T) string {
	t.Helper()
	if len(r.Result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return r.Result.Content[0].Text
}

func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, name string, args map[string]any) toolResponse {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	raw, err := json.Marshal(s.HandleMessage(ctx, body))
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var resp toolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func decodeErrorResponse(t *testing.T, resp toolResponse) ErrorResponse {
	t.Helper()
	if !resp.Result.IsError {
		t.Fatalf("expected tool error result, got %q", resp.text(t))
	}
	var er ErrorResponse
	if err := json.Unmarshal([]byte(resp.text(t)), &er); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	return er
}
