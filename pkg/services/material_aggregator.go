package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
)

// MaterialDelimiter separates materials in aggregated text.
const MaterialDelimiter = "\n\n---\n\n"

// MaterialAggregator concatenates the extracted text of a course's materials.
type MaterialAggregator interface {
	// Aggregate returns apperrors.ErrNoMaterial when the owner has no
	// materials for the course. Oversized text is truncated, never rejected.
	Aggregate(ctx context.Context, ownerID, courseID uuid.UUID) (*models.AggregatedMaterial, error)
	// Invalidate drops any cached aggregate for the course.
	Invalidate(ctx context.Context, ownerID, courseID uuid.UUID)
}

type materialAggregator struct {
	materialRepo repositories.MaterialRepository
	cache        *redis.Client // nil disables caching
	charBudget   int
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewMaterialAggregator creates an aggregator. cache may be nil.
func NewMaterialAggregator(
	materialRepo repositories.MaterialRepository,
	cache *redis.Client,
	charBudget int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) MaterialAggregator {
	return &materialAggregator{
		materialRepo: materialRepo,
		cache:        cache,
		charBudget:   charBudget,
		cacheTTL:     cacheTTL,
		logger:       logger.Named("materials"),
	}
}

var _ MaterialAggregator = (*materialAggregator)(nil)

func materialCacheKey(ownerID, courseID uuid.UUID) string {
	return fmt.Sprintf("studysphere:materials:%s:%s", ownerID, courseID)
}

func (a *materialAggregator) Aggregate(ctx context.Context, ownerID, courseID uuid.UUID) (*models.AggregatedMaterial, error) {
	if cached := a.fromCache(ctx, ownerID, courseID); cached != nil {
		return cached, nil
	}

	materials, err := a.materialRepo.ListByCourse(ctx, ownerID, courseID)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if len(materials) == 0 {
		return nil, apperrors.ErrNoMaterial
	}

	texts := make([]string, len(materials))
	for i, m := range materials {
		texts[i] = m.TextContent
	}
	text, truncated := truncateRunes(strings.Join(texts, MaterialDelimiter), a.charBudget)

	agg := &models.AggregatedMaterial{
		Text:          text,
		MaterialCount: len(materials),
		Truncated:     truncated,
	}
	if truncated {
		a.logger.Debug("Material text truncated",
			zap.String("course_id", courseID.String()),
			zap.Int("budget", a.charBudget))
	}

	a.toCache(ctx, ownerID, courseID, agg)
	return agg, nil
}

func (a *materialAggregator) Invalidate(ctx context.Context, ownerID, courseID uuid.UUID) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, materialCacheKey(ownerID, courseID)).Err(); err != nil {
		a.logger.Warn("Failed to invalidate material cache",
			zap.String("course_id", courseID.String()),
			zap.Error(err))
	}
}

func (a *materialAggregator) fromCache(ctx context.Context, ownerID, courseID uuid.UUID) *models.AggregatedMaterial {
	if a.cache == nil {
		return nil
	}

	raw, err := a.cache.Get(ctx, materialCacheKey(ownerID, courseID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			a.logger.Warn("Material cache read failed; using store",
				zap.String("course_id", courseID.String()),
				zap.Error(err))
		}
		return nil
	}

	var agg models.AggregatedMaterial
	if err := json.Unmarshal(raw, &agg); err != nil {
		a.logger.Warn("Discarding corrupt material cache entry",
			zap.String("course_id", courseID.String()),
			zap.Error(err))
		return nil
	}
	return &agg
}

func (a *materialAggregator) toCache(ctx context.Context, ownerID, courseID uuid.UUID, agg *models.AggregatedMaterial) {
	if a.cache == nil {
		return
	}

	raw, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, materialCacheKey(ownerID, courseID), raw, a.cacheTTL).Err(); err != nil {
		a.logger.Warn("Material cache write failed",
			zap.String("course_id", courseID.String()),
			zap.Error(err))
	}
}

// truncateRunes returns the first max characters of s.
func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
