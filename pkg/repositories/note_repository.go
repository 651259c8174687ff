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

// NoteRepository defines the interface for note data access.
// Mutations filter on both id and owner_id.
type NoteRepository interface {
	// ListByOwner returns the owner's notes, most recently updated first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	// GetByID looks a note up by id alone, for ownership checks.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type noteRepository struct{}

// NewNoteRepository creates a new note repository.
func NewNoteRepository() NoteRepository {
	return &noteRepository{}
}

var _ NoteRepository = (*noteRepository)(nil)

const noteColumns = `id, owner_id, title, content, tags, created_at, updated_at`

func (r *noteRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + noteColumns + `
		FROM notes
		WHERE owner_id = $1
		ORDER BY updated_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}

	query := `
		INSERT INTO notes (owner_id, title, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := scope.Conn.QueryRow(ctx, query,
		note.OwnerID,
		note.Title,
		note.Content,
		note.Tags,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	return scanNote(scope.Conn.QueryRow(ctx, query, id))
}

func (r *noteRepository) Update(ctx context.Context, note *models.Note) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	note.UpdatedAt = time.Now().UTC()
	if note.Tags == nil {
		note.Tags = []string{}
	}

	query := `
		UPDATE notes
		SET title = $3, content = $4, tags = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query,
		note.ID,
		note.OwnerID,
		note.Title,
		note.Content,
		note.Tags,
		note.UpdatedAt,
	).Scan(&note.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

func (r *noteRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}
