package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/studysphere/pkg/database"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

// MaterialRepository defines the interface for course material data access.
type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	// ListByCourse returns materials matching both owner and course, oldest
	// first with id as tie-breaker so concatenation order is stable.
	ListByCourse(ctx context.Context, ownerID, courseID uuid.UUID) ([]*models.Material, error)
}

type materialRepository struct{}

// NewMaterialRepository creates a new material repository.
func NewMaterialRepository() MaterialRepository {
	return &materialRepository{}
}

var _ MaterialRepository = (*materialRepository)(nil)

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	material.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO materials (owner_id, course_id, file_name, url, text_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		material.OwnerID,
		material.CourseID,
		material.FileName,
		material.URL,
		material.TextContent,
		material.CreatedAt,
	).Scan(&material.ID)
	if err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}

	return nil
}

func (r *materialRepository) ListByCourse(ctx context.Context, ownerID, courseID uuid.UUID) ([]*models.Material, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, owner_id, course_id, file_name, url, text_content, created_at
		FROM materials
		WHERE owner_id = $1 AND course_id = $2
		ORDER BY created_at, id`

	rows, err := scope.Conn.Query(ctx, query, ownerID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	materials := make([]*models.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating materials: %w", err)
	}

	return materials, nil
}

func scanMaterial(row pgx.Row) (*models.Material, error) {
	var m models.Material
	err := row.Scan(&m.ID, &m.OwnerID, &m.CourseID, &m.FileName, &m.URL, &m.TextContent, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan material: %w", err)
	}
	return &m, nil
}
