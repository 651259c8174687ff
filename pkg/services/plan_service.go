package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/logging"
	"github.com/ekaya-inc/studysphere/pkg/metrics"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/validation"
)

// PlanRecorder receives one observation per plan generation.
type PlanRecorder interface {
	RecordPlanGeneration(outcome string, created, dropped int)
}

type nopPlanRecorder struct{}

func (nopPlanRecorder) RecordPlanGeneration(string, int, int) {}

// PlanOptions tunes the model call.
type PlanOptions struct {
	MaxTokens   int
	Temperature float64
}

// PlanService turns a course's materials into study tasks using the model.
type PlanService interface {
	// Generate aggregates the course material, asks the model for a plan and
	// inserts each valid proposed task for ownerID. The model is called once.
	// Insertion is not atomic: on a store failure the tasks inserted so far
	// remain and apperrors.ErrStoreFailure is returned.
	Generate(ctx context.Context, ownerID, courseID uuid.UUID, req *models.PlanRequest) (*models.PlanResult, error)
}

type planService struct {
	aggregator MaterialAggregator
	taskRepo   repositories.TaskRepository
	llmClient  llm.LLMClient
	opts       PlanOptions
	recorder   PlanRecorder
	logger     *zap.Logger
}

// NewPlanService creates a plan service. recorder may be nil.
func NewPlanService(
	aggregator MaterialAggregator,
	taskRepo repositories.TaskRepository,
	llmClient llm.LLMClient,
	opts PlanOptions,
	recorder PlanRecorder,
	logger *zap.Logger,
) PlanService {
	if recorder == nil {
		recorder = nopPlanRecorder{}
	}
	return &planService{
		aggregator: aggregator,
		taskRepo:   taskRepo,
		llmClient:  llmClient,
		opts:       opts,
		recorder:   recorder,
		logger:     logger.Named("plan"),
	}
}

var _ PlanService = (*planService)(nil)

func (s *planService) Generate(ctx context.Context, ownerID, courseID uuid.UUID, req *models.PlanRequest) (*models.PlanResult, error) {
	if err := requireIdentity(ownerID); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	material, err := s.aggregator.Aggregate(ctx, ownerID, courseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoMaterial) {
			s.recorder.RecordPlanGeneration(metrics.PlanOutcomeNoMaterial, 0, 0)
		}
		return nil, err
	}

	prompt := BuildPlanPrompt(req.Goal, req.Weeks, material.Text)

	resp, err := s.llmClient.GenerateResponse(llm.WithOperation(ctx, llm.OperationPlan), &llm.CompletionRequest{
		SystemMessage: planSystemMessage,
		Prompt:        prompt,
		Temperature:   s.opts.Temperature,
		MaxTokens:     s.opts.MaxTokens,
		JSONMode:      true,
	})
	if err != nil {
		s.logger.Error("Plan model call failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("course_id", courseID.String()),
			zap.String("error", logging.SanitizeError(err)))
		s.recorder.RecordPlanGeneration(metrics.PlanOutcomeModelUnavailable, 0, 0)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrModelUnavailable, err)
	}

	if thinking := llm.ExtractThinking(resp.Content); thinking != "" {
		s.logger.Debug("Plan response carried reasoning block",
			zap.String("course_id", courseID.String()),
			zap.Int("thinking_len", len(thinking)))
	}

	items, err := ParsePlanResponse(resp.Content)
	if err != nil {
		s.logger.Warn("Unparseable plan response",
			zap.String("course_id", courseID.String()),
			zap.Int("response_len", len(resp.Content)),
			zap.String("response_preview", logging.Preview(resp.Content)),
			zap.Error(err))
		s.recorder.RecordPlanGeneration(metrics.PlanOutcomeMalformed, 0, 0)
		return nil, err
	}

	inputs, dropped := ValidatePlanItems(items)

	inserted := 0
	for _, input := range inputs {
		task := &models.Task{
			OwnerID:  ownerID,
			Title:    input.Title,
			Priority: models.CoercePriority(input.Priority),
		}
		if err := s.taskRepo.Create(ctx, task); err != nil {
			s.logger.Error("Plan persistence stopped part way",
				zap.String("owner_id", ownerID.String()),
				zap.String("course_id", courseID.String()),
				zap.Int("inserted", inserted),
				zap.Int("remaining", len(inputs)-inserted),
				zap.String("error", logging.SanitizeError(err)))
			s.recorder.RecordPlanGeneration(metrics.PlanOutcomeStoreFailure, inserted, dropped)
			return nil, fmt.Errorf("%w: inserted %d of %d plan tasks: %w", apperrors.ErrStoreFailure, inserted, len(inputs), err)
		}
		inserted++
	}

	s.logger.Info("Generated study plan",
		zap.String("owner_id", ownerID.String()),
		zap.String("course_id", courseID.String()),
		zap.Int("materials", material.MaterialCount),
		zap.Bool("material_truncated", material.Truncated),
		zap.Int("proposed", len(items)),
		zap.Int("dropped", dropped),
		zap.Int("inserted", inserted))
	s.recorder.RecordPlanGeneration(metrics.PlanOutcomeSuccess, inserted, dropped)

	return &models.PlanResult{
		Message:   models.PlanSuccessMessage,
		TaskCount: inserted,
		Proposed:  len(items),
	}, nil
}
