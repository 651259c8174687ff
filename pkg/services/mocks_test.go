package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
)

// mockTaskRepository is an in-memory TaskRepository that applies the same
// id+owner filters as the SQL implementation.
type mockTaskRepository struct {
	tasks map[uuid.UUID]*models.Task

	createErr   error
	failAfterN  int // if > 0, Create fails once this many tasks were created
	getErr      error
	updateCalls int
	createCalls int
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[uuid.UUID]*models.Task)}
}

var _ repositories.TaskRepository = (*mockTaskRepository)(nil)

func (m *mockTaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.OwnerID == ownerID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockTaskRepository) ListWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	out := []*models.Task{}
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && t.DueDate != nil {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

func (m *mockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.failAfterN > 0 && len(m.tasks) >= m.failAfterN {
		return apperrors.ErrStoreFailure
	}
	// Postgres text columns reject NUL bytes.
	if strings.ContainsRune(task.Title, 0) || strings.ContainsRune(task.Description, 0) {
		return errors.New(`invalid byte sequence for encoding "UTF8": 0x00`)
	}
	task.ID = uuid.New()
	task.CreatedAt = time.Now().Add(time.Duration(len(m.tasks)) * time.Millisecond)
	task.UpdatedAt = task.CreatedAt
	c := *task
	m.tasks[task.ID] = &c
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	m.updateCalls++
	existing, ok := m.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return apperrors.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	task.CreatedAt = existing.CreatedAt
	c := *task
	m.tasks[task.ID] = &c
	return nil
}

func (m *mockTaskRepository) SetCompleted(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error) {
	existing, ok := m.tasks[id]
	if !ok || existing.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	existing.Completed = completed
	existing.UpdatedAt = time.Now()
	c := *existing
	return &c, nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	existing, ok := m.tasks[id]
	if !ok || existing.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// mockNoteRepository is an in-memory NoteRepository.
type mockNoteRepository struct {
	notes       map[uuid.UUID]*models.Note
	createCalls int
}

func newMockNoteRepository() *mockNoteRepository {
	return &mockNoteRepository{notes: make(map[uuid.UUID]*models.Note)}
}

var _ repositories.NoteRepository = (*mockNoteRepository)(nil)

func (m *mockNoteRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	var out []*models.Note
	for _, n := range m.notes {
		if n.OwnerID == ownerID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockNoteRepository) Create(ctx context.Context, note *models.Note) error {
	m.createCalls++
	note.ID = uuid.New()
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	c := *note
	m.notes[note.ID] = &c
	return nil
}

func (m *mockNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (m *mockNoteRepository) Update(ctx context.Context, note *models.Note) error {
	existing, ok := m.notes[note.ID]
	if !ok || existing.OwnerID != note.OwnerID {
		return apperrors.ErrNotFound
	}
	note.UpdatedAt = time.Now()
	c := *note
	m.notes[note.ID] = &c
	return nil
}

func (m *mockNoteRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	existing, ok := m.notes[id]
	if !ok || existing.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// mockCourseRepository is an in-memory CourseRepository.
type mockCourseRepository struct {
	courses map[uuid.UUID]*models.Course
}

func newMockCourseRepository() *mockCourseRepository {
	return &mockCourseRepository{courses: make(map[uuid.UUID]*models.Course)}
}

var _ repositories.CourseRepository = (*mockCourseRepository)(nil)

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.New()
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	c := *course
	m.courses[course.ID] = &c
	return nil
}

func (m *mockCourseRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error) {
	var out []*models.Course
	for _, c := range m.courses {
		if c.OwnerID == ownerID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

// mockMaterialRepository returns configured materials and captures creates.
type mockMaterialRepository struct {
	materials []*models.Material
	listErr   error
	listCalls int

	capturedMaterial *models.Material
}

var _ repositories.MaterialRepository = (*mockMaterialRepository)(nil)

func (m *mockMaterialRepository) Create(ctx context.Context, material *models.Material) error {
	material.ID = uuid.New()
	material.CreatedAt = time.Now()
	m.capturedMaterial = material
	m.materials = append(m.materials, material)
	return nil
}

func (m *mockMaterialRepository) ListByCourse(ctx context.Context, ownerID, courseID uuid.UUID) ([]*models.Material, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Material
	for _, mat := range m.materials {
		if mat.OwnerID == ownerID && mat.CourseID == courseID {
			out = append(out, mat)
		}
	}
	return out, nil
}

// mockUserRepository is an in-memory UserRepository keyed by email.
type mockUserRepository struct {
	users     map[string]*models.User
	createErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*models.User)}
}

var _ repositories.UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, taken := m.users[user.Email]; taken {
		return apperrors.ErrConflict
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	m.users[user.Email] = &c
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for k, u := range m.users {
		if k == email || u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// mockAggregator returns a fixed aggregate or error and records invalidations.
type mockAggregator struct {
	result *models.AggregatedMaterial
	err    error

	aggregateCalls int
	invalidated    []uuid.UUID
}

var _ MaterialAggregator = (*mockAggregator)(nil)

func (m *mockAggregator) Aggregate(ctx context.Context, ownerID, courseID uuid.UUID) (*models.AggregatedMaterial, error) {
	m.aggregateCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAggregator) Invalidate(ctx context.Context, ownerID, courseID uuid.UUID) {
	m.invalidated = append(m.invalidated, courseID)
}

// mockPlanRecorder captures plan generation observations.
type mockPlanRecorder struct {
	outcome string
	created int
	dropped int
	calls   int
}

func (m *mockPlanRecorder) RecordPlanGeneration(outcome string, created, dropped int) {
	m.calls++
	m.outcome = outcome
	m.created = created
	m.dropped = dropped
}
