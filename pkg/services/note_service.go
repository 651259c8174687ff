package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/validation"
)

// NoteService manages a user's notes with the same ownership rules as tasks.
type NoteService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error)
	Create(ctx context.Context, ownerID uuid.UUID, input *models.NoteInput) (*models.Note, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type noteService struct {
	noteRepo repositories.NoteRepository
	logger   *zap.Logger
}

// NewNoteService creates a new note service with dependencies.
func NewNoteService(noteRepo repositories.NoteRepository, logger *zap.Logger) NoteService {
	return &noteService{
		noteRepo: noteRepo,
		logger:   logger.Named("notes"),
	}
}

var _ NoteService = (*noteService)(nil)

func (s *noteService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}

	notes, err := s.noteRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	return notes, nil
}

func (s *noteService) Create(ctx context.Context, ownerID uuid.UUID, input *models.NoteInput) (*models.Note, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	note := &models.Note{
		OwnerID: ownerID,
		Title:   strings.TrimSpace(input.Title),
		Content: input.Content,
		Tags:    models.NormalizeTags(input.Tags),
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *noteService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	return requireOwned[models.Note](ctx, s.logger, "note", s.noteRepo.GetByID, ownerID, id)
}

func (s *noteService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.NotePatch) (*models.Note, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	note, err := requireOwned[models.Note](ctx, s.logger, "note", s.noteRepo.GetByID, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return note, nil
	}

	if patch.Title != nil {
		note.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.Tags = models.NormalizeTags(patch.Tags)
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := requireIdentity(ownerID); err != nil {
		return err
	}
	return s.noteRepo.Delete(ctx, ownerID, id)
}
