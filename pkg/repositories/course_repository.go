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

// CourseRepository defines the interface for course data access.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	// ListByOwner returns the owner's courses, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error)
	// GetByID looks a course up by id alone, for ownership checks.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type courseRepository struct{}

// NewCourseRepository creates a new course repository.
func NewCourseRepository() CourseRepository {
	return &courseRepository{}
}

var _ CourseRepository = (*courseRepository)(nil)

const courseColumns = `id, owner_id, name, description, created_at, updated_at`

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	query := `
		INSERT INTO courses (owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		course.OwnerID,
		course.Name,
		course.Description,
		course.CreatedAt,
		course.UpdatedAt,
	).Scan(&course.ID)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

func (r *courseRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + courseColumns + `
		FROM courses
		WHERE owner_id = $1
		ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	return scanCourse(scope.Conn.QueryRow(ctx, query, id))
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return &c, nil
}
