package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/database"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

// TaskRepository defines the interface for task data access.
// Every mutation filters on both id and owner_id; a zero-row match is
// reported as apperrors.ErrNotFound.
type TaskRepository interface {
	// ListByOwner orders by due date (undated last), then creation time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error)
	// ListWithDueDate returns only dated tasks, ordered by due date.
	ListWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	// GetByID looks a task up by id alone, for ownership checks.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// Update writes every mutable field of task. OwnerID selects the row and is never changed.
	Update(ctx context.Context, task *models.Task) error
	SetCompleted(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type taskRepository struct{}

// NewTaskRepository creates a new task repository.
func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

var _ TaskRepository = (*taskRepository)(nil)

const taskColumns = `id, owner_id, title, description, due_date, priority, completed, created_at, updated_at`

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY due_date ASC NULLS LAST, created_at ASC, id`
	return r.list(ctx, query, ownerID)
}

func (r *taskRepository) ListWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1 AND due_date IS NOT NULL
		ORDER BY due_date ASC, created_at ASC, id`
	return r.list(ctx, query, ownerID)
}

func (r *taskRepository) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (owner_id, title, description, due_date, priority, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Priority),
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	return scanTask(scope.Conn.QueryRow(ctx, query, id))
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, priority = $6, completed = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Priority),
		task.Completed,
		task.UpdatedAt,
	).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

func (r *taskRepository) SetCompleted(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE tasks
		SET completed = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns

	return scanTask(scope.Conn.QueryRow(ctx, query, id, ownerID, completed, time.Now().UTC()))
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var priority string
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&priority,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	t.Priority = models.CoercePriority(priority)
	return &t, nil
}
