package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
)

// Ownership is the outcome of checking a record against a requesting owner.
type Ownership int

const (
	// OwnershipNotFound means no record has the id.
	OwnershipNotFound Ownership = iota
	// OwnershipForbidden means the record exists but belongs to someone else.
	OwnershipForbidden
	// OwnershipOwned means the record belongs to the requester.
	OwnershipOwned
)

func (o Ownership) String() string {
	switch o {
	case OwnershipNotFound:
		return "not_found"
	case OwnershipForbidden:
		return "forbidden"
	case OwnershipOwned:
		return "owned"
	default:
		return "unknown"
	}
}

// OwnershipResult carries the outcome and, when owned, the record.
type OwnershipResult[T any] struct {
	Outcome Ownership
	Record  *T
}

// Owned is implemented by records that carry an owner id.
type Owned interface {
	GetOwnerID() uuid.UUID
}

// LookupFunc fetches a record by id alone. It returns apperrors.ErrNotFound
// when no record exists.
type LookupFunc[T any] func(ctx context.Context, id uuid.UUID) (*T, error)

// CheckOwnership looks up id and compares its owner with ownerID.
// Store failures are returned as errors, never as an outcome.
func CheckOwnership[T any, PT interface {
	*T
	Owned
}](ctx context.Context, lookup LookupFunc[T], ownerID, id uuid.UUID) (OwnershipResult[T], error) {
	record, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return OwnershipResult[T]{Outcome: OwnershipNotFound}, nil
		}
		return OwnershipResult[T]{}, err
	}
	if record == nil {
		return OwnershipResult[T]{Outcome: OwnershipNotFound}, nil
	}
	if PT(record).GetOwnerID() != ownerID {
		return OwnershipResult[T]{Outcome: OwnershipForbidden}, nil
	}
	return OwnershipResult[T]{Outcome: OwnershipOwned, Record: record}, nil
}

// requireOwned runs CheckOwnership and folds NotFound and Forbidden into
// apperrors.ErrNotFound, so a non-owner sees the same result as a missing id.
// Forbidden outcomes are logged with both ids.
func requireOwned[T any, PT interface {
	*T
	Owned
}](ctx context.Context, logger *zap.Logger, resource string, lookup LookupFunc[T], ownerID, id uuid.UUID) (*T, error) {
	result, err := CheckOwnership[T, PT](ctx, lookup, ownerID, id)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case OwnershipOwned:
		return result.Record, nil
	case OwnershipForbidden:
		logger.Warn("Access to record owned by another user",
			zap.String("resource", resource),
			zap.String("record_id", id.String()),
			zap.String("requester_id", ownerID.String()))
	}
	return nil, apperrors.ErrNotFound
}
