package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/metrics"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

type planFixture struct {
	svc        PlanService
	aggregator *mockAggregator
	taskRepo   *mockTaskRepository
	llmClient  *llm.MockLLMClient
	recorder   *mockPlanRecorder
	owner      uuid.UUID
	course     uuid.UUID
}

func newPlanFixture(modelResponse string) *planFixture {
	f := &planFixture{
		aggregator: &mockAggregator{result: &models.AggregatedMaterial{Text: "Photosynthesis basics", MaterialCount: 1}},
		taskRepo:   newMockTaskRepository(),
		llmClient:  llm.NewMockLLMClientWithResponse(modelResponse),
		recorder:   &mockPlanRecorder{},
		owner:      uuid.New(),
		course:     uuid.New(),
	}
	f.svc = NewPlanService(f.aggregator, f.taskRepo, f.llmClient, PlanOptions{MaxTokens: 2048, Temperature: 0.7}, f.recorder, zap.NewNop())
	return f
}

func (f *planFixture) generate() (*models.PlanResult, error) {
	return f.svc.Generate(context.Background(), f.owner, f.course, &models.PlanRequest{Goal: "Pass the exam", Weeks: 4})
}

func (f *planFixture) storedTasks(t *testing.T) []*models.Task {
	t.Helper()
	tasks, err := f.taskRepo.ListByOwner(context.Background(), f.owner)
	require.NoError(t, err)
	return tasks
}

func TestPlanService_BareArray_DropsBlankTitles(t *testing.T) {
	f := newPlanFixture(`[{"title":"A","priority":"High"},{"title":"","priority":"Low"}]`)

	result, err := f.generate()
	require.NoError(t, err)
	assert.Equal(t, models.PlanSuccessMessage, result.Message)
	assert.Equal(t, 1, result.TaskCount)
	assert.Equal(t, 2, result.Proposed)

	tasks := f.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Title)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, f.owner, tasks[0].OwnerID)
	assert.False(t, tasks[0].Completed)

	assert.Equal(t, metrics.PlanOutcomeSuccess, f.recorder.outcome)
	assert.Equal(t, 1, f.recorder.created)
	assert.Equal(t, 1, f.recorder.dropped)
}

func TestPlanService_ControlCharactersDoNotSinkBatch(t *testing.T) {
	f := newPlanFixture(`[{"title":"Review\u0000Chapter"},{"title":"\u0000"},"stray",{"title":"Quiz","priority":"high"}]`)

	result, err := f.generate()
	require.NoError(t, err)
	assert.Equal(t, 2, result.TaskCount)
	assert.Equal(t, 4, result.Proposed)

	tasks := f.storedTasks(t)
	require.Len(t, tasks, 2)
	titles := []string{tasks[0].Title, tasks[1].Title}
	assert.ElementsMatch(t, []string{"Review Chapter", "Quiz"}, titles)

	assert.Equal(t, metrics.PlanOutcomeSuccess, f.recorder.outcome)
	assert.Equal(t, 2, f.recorder.created)
	assert.Equal(t, 2, f.recorder.dropped)
}

func TestPlanService_ObjectWrapper_DefaultPriority(t *testing.T) {
	f := newPlanFixture(`{"tasks":[{"title":"B"}]}`)

	result, err := f.generate()
	require.NoError(t, err)
	assert.Equal(t, 1, result.TaskCount)

	tasks := f.storedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "B", tasks[0].Title)
	assert.Equal(t, models.PriorityMedium, tasks[0].Priority)
}

func TestPlanService_NoMaterial(t *testing.T) {
	f := newPlanFixture(`[{"title":"never"}]`)
	f.aggregator.result = nil
	f.aggregator.err = apperrors.ErrNoMaterial

	_, err := f.generate()
	assert.ErrorIs(t, err, apperrors.ErrNoMaterial)

	generateCalls, _ := f.llmClient.Calls()
	assert.Equal(t, 0, generateCalls)
	assert.Equal(t, 0, f.taskRepo.createCalls)
	assert.Equal(t, metrics.PlanOutcomeNoMaterial, f.recorder.outcome)
}

func TestPlanService_MalformedResponse(t *testing.T) {
	f := newPlanFixture(`Sure! Here is a plan: read everything.`)

	_, err := f.generate()
	assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	assert.Equal(t, 0, f.taskRepo.createCalls)
	assert.Equal(t, metrics.PlanOutcomeMalformed, f.recorder.outcome)
}

func TestPlanService_ModelUnavailable(t *testing.T) {
	f := newPlanFixture("")
	f.llmClient.GenerateResponseFunc = func(ctx context.Context, req *llm.CompletionRequest) (*llm.GenerateResponseResult, error) {
		return nil, llm.NewError(llm.ErrorTypeEndpoint, "connection refused", true, nil)
	}

	_, err := f.generate()
	assert.ErrorIs(t, err, apperrors.ErrModelUnavailable)
	assert.Equal(t, llm.ErrorTypeEndpoint, llm.GetErrorType(err))
	assert.Equal(t, 0, f.taskRepo.createCalls)
	assert.Equal(t, metrics.PlanOutcomeModelUnavailable, f.recorder.outcome)
}

func TestPlanService_CallsModelOnceInJSONMode(t *testing.T) {
	f := newPlanFixture(`[]`)

	result, err := f.generate()
	require.NoError(t, err)
	assert.Equal(t, 0, result.TaskCount)

	generateCalls, _ := f.llmClient.Calls()
	assert.Equal(t, 1, generateCalls)
	req := f.llmClient.LastCompletion
	require.NotNil(t, req)
	assert.True(t, req.JSONMode)
	assert.Equal(t, 2048, req.MaxTokens)
	assert.Equal(t, planSystemMessage, req.SystemMessage)
	assert.Equal(t, BuildPlanPrompt("Pass the exam", 4, "Photosynthesis basics"), req.Prompt)
}

func TestPlanService_PartialStoreFailure(t *testing.T) {
	f := newPlanFixture(`[{"title":"one"},{"title":"two"},{"title":"three"}]`)
	f.taskRepo.failAfterN = 2

	_, err := f.generate()
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.Len(t, f.storedTasks(t), 2)
	assert.Equal(t, metrics.PlanOutcomeStoreFailure, f.recorder.outcome)
	assert.Equal(t, 2, f.recorder.created)
}

func TestPlanService_InvalidRequest(t *testing.T) {
	f := newPlanFixture(`[]`)

	_, err := f.svc.Generate(context.Background(), f.owner, f.course, &models.PlanRequest{Goal: " ", Weeks: 4})
	_, ok := apperrors.AsValidationError(err)
	assert.True(t, ok)

	_, err = f.svc.Generate(context.Background(), f.owner, f.course, &models.PlanRequest{Goal: "x", Weeks: 0})
	_, ok = apperrors.AsValidationError(err)
	assert.True(t, ok)

	assert.Equal(t, 0, f.aggregator.aggregateCalls)
	assert.Equal(t, 0, f.recorder.calls)
}

func TestPlanService_AggregatorStoreError(t *testing.T) {
	f := newPlanFixture(`[]`)
	f.aggregator.result = nil
	f.aggregator.err = errors.New("db down")

	_, err := f.generate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNoMaterial)
	assert.Equal(t, 0, f.recorder.calls)
}
