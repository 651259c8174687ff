package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/validation"
)

// TaskService manages a user's tasks. Every method takes the owner id
// explicitly; records owned by someone else behave as if they did not exist.
type TaskService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error)
	Create(ctx context.Context, ownerID uuid.UUID, input *models.TaskInput) (*models.Task, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error)
	// CalendarEvents projects dated tasks onto all-day events, ordered by due date.
	CalendarEvents(ctx context.Context, ownerID uuid.UUID) ([]*models.CalendarEvent, error)
}

type taskService struct {
	taskRepo repositories.TaskRepository
	logger   *zap.Logger
}

// NewTaskService creates a new task service with dependencies.
func NewTaskService(taskRepo repositories.TaskRepository, logger *zap.Logger) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		logger:   logger.Named("tasks"),
	}
}

var _ TaskService = (*taskService)(nil)

func (s *taskService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, input *models.TaskInput) (*models.Task, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    models.CoercePriority(input.Priority),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Debug("Created task",
		zap.String("owner_id", ownerID.String()),
		zap.String("task_id", task.ID.String()))
	return task, nil
}

func (s *taskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	return requireOwned[models.Task](ctx, s.logger, "task", s.taskRepo.GetByID, ownerID, id)
}

func (s *taskService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	task, err := requireOwned[models.Task](ctx, s.logger, "task", s.taskRepo.GetByID, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return task, nil
	}

	applyTaskPatch(task, patch)

	// The guard passed, but the row may have been deleted since; the
	// compound filter turns that into ErrNotFound.
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func applyTaskPatch(task *models.Task, patch *models.TaskPatch) {
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.ClearDueDate {
		task.DueDate = nil
	} else if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = models.CoercePriority(*patch.Priority)
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
}

func (s *taskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := requireIdentity(ownerID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, ownerID, id)
}

func (s *taskService) SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	return s.taskRepo.SetCompleted(ctx, ownerID, id, completed)
}

func (s *taskService) CalendarEvents(ctx context.Context, ownerID uuid.UUID) ([]*models.CalendarEvent, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListWithDueDate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list dated tasks: %w", err)
	}

	events := make([]*models.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		if ev := models.NewCalendarEvent(t); ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

// requireIdentity rejects calls made without an authenticated owner.
func requireIdentity(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}
	return nil
}
