package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/logging"
)

const (
	summarySystemMessage = "You are a helpful assistant designed to summarize academic texts for students. " +
		"Summarize the following text by extracting the key points, main arguments, and conclusions. " +
		"Present the summary in clear, concise bullet points."
	summaryTemperature = 0.5
	summaryMaxTokens   = 256
)

// SummarizeService condenses academic text into bullet points.
type SummarizeService interface {
	// Summarize returns *apperrors.TooShortError without calling the model
	// when the trimmed text has fewer than the configured minimum characters.
	Summarize(ctx context.Context, text string) (string, error)
}

type summarizeService struct {
	llmClient llm.LLMClient
	minChars  int
	logger    *zap.Logger
}

// NewSummarizeService creates a summarize service.
func NewSummarizeService(llmClient llm.LLMClient, minChars int, logger *zap.Logger) SummarizeService {
	return &summarizeService{
		llmClient: llmClient,
		minChars:  minChars,
		logger:    logger.Named("summarize"),
	}
}

var _ SummarizeService = (*summarizeService)(nil)

func (s *summarizeService) Summarize(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < s.minChars {
		return "", &apperrors.TooShortError{MinChars: s.minChars}
	}

	resp, err := s.llmClient.GenerateResponse(llm.WithOperation(ctx, llm.OperationSummarize), &llm.CompletionRequest{
		SystemMessage: summarySystemMessage,
		Prompt:        trimmed,
		Temperature:   summaryTemperature,
		MaxTokens:     summaryMaxTokens,
	})
	if err != nil {
		s.logger.Error("Summary model call failed",
			zap.Int("text_len", len(trimmed)),
			zap.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("%w: %w", apperrors.ErrModelUnavailable, err)
	}

	return strings.TrimSpace(resp.Content), nil
}
