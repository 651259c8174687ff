package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

// mockTaskService implements services.TaskService with captured arguments.
type mockTaskService struct {
	tasks  []*models.Task
	task   *models.Task
	events []*models.CalendarEvent
	err    error

	capturedOwner uuid.UUID
	capturedID    uuid.UUID
	capturedInput *models.TaskInput
	capturedPatch *models.TaskPatch
	capturedDone  *bool
	deleteCalls   int
}

func (m *mockTaskService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	m.capturedOwner = ownerID
	return m.tasks, m.err
}

func (m *mockTaskService) Create(ctx context.Context, ownerID uuid.UUID, input *models.TaskInput) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedInput = input
	return m.task, m.err
}

func (m *mockTaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedID = id
	return m.task, m.err
}

func (m *mockTaskService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedID = id
	m.capturedPatch = patch
	return m.task, m.err
}

func (m *mockTaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.capturedOwner = ownerID
	m.capturedID = id
	m.deleteCalls++
	return m.err
}

func (m *mockTaskService) SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error) {
	m.capturedOwner = ownerID
	m.capturedID = id
	m.capturedDone = &completed
	return m.task, m.err
}

func (m *mockTaskService) CalendarEvents(ctx context.Context, ownerID uuid.UUID) ([]*models.CalendarEvent, error) {
	m.capturedOwner = ownerID
	return m.events, m.err
}

// mockNoteService implements services.NoteService.
type mockNoteService struct {
	notes []*models.Note
	note  *models.Note
	err   error

	capturedID    uuid.UUID
	capturedInput *models.NoteInput
	capturedPatch *models.NotePatch
}

func (m *mockNoteService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	return m.notes, m.err
}

func (m *mockNoteService) Create(ctx context.Context, ownerID uuid.UUID, input *models.NoteInput) (*models.Note, error) {
	m.capturedInput = input
	return m.note, m.err
}

func (m *mockNoteService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	m.capturedID = id
	return m.note, m.err
}

func (m *mockNoteService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.NotePatch) (*models.Note, error) {
	m.capturedID = id
	m.capturedPatch = patch
	return m.note, m.err
}

func (m *mockNoteService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.capturedID = id
	return m.err
}

// mockCourseService implements services.CourseService.
type mockCourseService struct {
	courses  []*models.Course
	course   *models.Course
	detail   *models.CourseDetail
	material *models.Material
	err      error

	capturedCourseID uuid.UUID
	capturedMaterial *models.MaterialInput
}

func (m *mockCourseService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) Create(ctx context.Context, ownerID uuid.UUID, input *models.CourseInput) (*models.Course, error) {
	return m.course, m.err
}

func (m *mockCourseService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.CourseDetail, error) {
	m.capturedCourseID = id
	return m.detail, m.err
}

func (m *mockCourseService) AddMaterial(ctx context.Context, ownerID, courseID uuid.UUID, input *models.MaterialInput) (*models.Material, error) {
	m.capturedCourseID = courseID
	m.capturedMaterial = input
	return m.material, m.err
}

// mockPlanService implements services.PlanService.
type mockPlanService struct {
	result *models.PlanResult
	err    error
	calls  int

	capturedOwner   uuid.UUID
	capturedCourse  uuid.UUID
	capturedRequest *models.PlanRequest
}

func (m *mockPlanService) Generate(ctx context.Context, ownerID, courseID uuid.UUID, req *models.PlanRequest) (*models.PlanResult, error) {
	m.calls++
	m.capturedOwner = ownerID
	m.capturedCourse = courseID
	m.capturedRequest = req
	return m.result, m.err
}

// mockSummarizeService implements services.SummarizeService.
type mockSummarizeService struct {
	summary string
	err     error
}

func (m *mockSummarizeService) Summarize(ctx context.Context, text string) (string, error) {
	return m.summary, m.err
}

// mockChatService implements services.ChatService. Start replays events
// on a closed channel, or fails with startErr.
type mockChatService struct {
	prepareErr error
	startErr   error
	events     []models.ChatEvent
	history    []llm.Message
}

func (m *mockChatService) PrepareHistory(history []models.ChatMessage) ([]llm.Message, error) {
	if m.prepareErr != nil {
		return nil, m.prepareErr
	}
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out, nil
}

func (m *mockChatService) Start(ctx context.Context, history []llm.Message) (<-chan models.ChatEvent, error) {
	m.history = history
	if m.startErr != nil {
		return nil, m.startErr
	}
	events := make(chan models.ChatEvent, len(m.events))
	for _, ev := range m.events {
		events <- ev
	}
	close(events)
	return events, nil
}

// mockUserService implements services.UserService.
type mockUserService struct {
	user    *models.User
	err     error
	getByID uuid.UUID
}

func (m *mockUserService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Authenticate(ctx context.Context, input *models.LoginInput) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.getByID = id
	return m.user, m.err
}

// mockAuthService implements auth.AuthService.
type mockAuthService struct {
	claims *auth.Claims
	err    error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.claims, "test-token", nil
}

func userClaims(userID uuid.UUID) *auth.Claims {
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
}

// passthroughScope stands in for the database scope middleware.
func passthroughScope(next http.HandlerFunc) http.HandlerFunc { return next }

// newAuthMiddleware accepts every request as userID, or rejects every
// request when userID is uuid.Nil.
func newAuthMiddleware(userID uuid.UUID) *auth.Middleware {
	svc := &mockAuthService{claims: userClaims(userID)}
	if userID == uuid.Nil {
		svc.err = auth.ErrMissingAuthorization
	}
	return auth.NewMiddleware(svc, zap.NewNop())
}

// withUser attaches userID's claims as the auth middleware would.
func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), userClaims(userID), "test-token"))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeSuccess decodes {"success":true,"data":...} into data.
func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder, data any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
