package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/validation"
)

// CourseService manages courses and the materials recorded against them.
type CourseService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error)
	Create(ctx context.Context, ownerID uuid.UUID, input *models.CourseInput) (*models.Course, error)
	// Get returns the course with its materials, newest first.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.CourseDetail, error)
	// AddMaterial records extracted text for an owned course and invalidates
	// the course's aggregated material.
	AddMaterial(ctx context.Context, ownerID, courseID uuid.UUID, input *models.MaterialInput) (*models.Material, error)
}

type courseService struct {
	courseRepo   repositories.CourseRepository
	materialRepo repositories.MaterialRepository
	aggregator   MaterialAggregator
	logger       *zap.Logger
}

// NewCourseService creates a new course service with dependencies.
func NewCourseService(
	courseRepo repositories.CourseRepository,
	materialRepo repositories.MaterialRepository,
	aggregator MaterialAggregator,
	logger *zap.Logger,
) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		materialRepo: materialRepo,
		aggregator:   aggregator,
		logger:       logger.Named("courses"),
	}
}

var _ CourseService = (*courseService)(nil)

func (s *courseService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Course, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

func (s *courseService) Create(ctx context.Context, ownerID uuid.UUID, input *models.CourseInput) (*models.Course, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	course := &models.Course{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *courseService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.CourseDetail, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}

	course, err := requireOwned[models.Course](ctx, s.logger, "course", s.courseRepo.GetByID, ownerID, id)
	if err != nil {
		return nil, err
	}

	materials, err := s.materialRepo.ListByCourse(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if materials == nil {
		materials = []*models.Material{}
	}
	slices.Reverse(materials)

	return &models.CourseDetail{Course: course, Materials: materials}, nil
}

func (s *courseService) AddMaterial(ctx context.Context, ownerID, courseID uuid.UUID, input *models.MaterialInput) (*models.Material, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if _, err := requireOwned[models.Course](ctx, s.logger, "course", s.courseRepo.GetByID, ownerID, courseID); err != nil {
		return nil, err
	}

	material := &models.Material{
		OwnerID:     ownerID,
		CourseID:    courseID,
		FileName:    strings.TrimSpace(input.FileName),
		URL:         strings.TrimSpace(input.URL),
		TextContent: input.TextContent,
	}
	if err := s.materialRepo.Create(ctx, material); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}

	s.aggregator.Invalidate(ctx, ownerID, courseID)

	s.logger.Debug("Recorded course material",
		zap.String("course_id", courseID.String()),
		zap.String("material_id", material.ID.String()),
		zap.Int("text_len", len(material.TextContent)))
	return material, nil
}
