package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
)

// Priority is the urgency of a task. Values are always lowercase.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is applied when a priority is absent or unrecognized.
const DefaultPriority = PriorityMedium

// ValidPriorities lists every accepted priority in ascending order.
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalizes s case-insensitively.
// Returns false if s does not name a known priority.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// CoercePriority returns the normalized priority or DefaultPriority.
func CoercePriority(s string) Priority {
	if p, ok := ParsePriority(s); ok {
		return p
	}
	return DefaultPriority
}

// Task is a unit of study work owned by one user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput holds client-supplied fields for creating a task.
type TaskInput struct {
	Title       string     `json:"title" validate:"notblank,nonul,max=500"`
	Description string     `json:"description" validate:"nonul,max=10000"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority" validate:"omitempty,priority"`
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
// ClearDueDate removes the due date and takes precedence over DueDate.
type TaskPatch struct {
	Title        *string    `json:"title" validate:"omitnil,notblank,nonul,max=500"`
	Description  *string    `json:"description" validate:"omitnil,nonul,max=10000"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
	Priority     *string    `json:"priority" validate:"omitnil,priority"`
	Completed    *bool      `json:"completed"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		!p.ClearDueDate && p.Priority == nil && p.Completed == nil
}

// DueDateLayout is the calendar-date form accepted alongside RFC 3339.
const DueDateLayout = "2006-01-02"

// ParseDueDate accepts a YYYY-MM-DD date (midnight UTC) or an RFC 3339
// timestamp. An empty string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DueDateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperrors.NewValidationError("dueDate", "dueDate must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}

// decodeDueDate parses a raw dueDate member; absent and null mean no date.
func decodeDueDate(raw json.RawMessage) (*time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.NewValidationError("dueDate", "dueDate must be a string")
	}
	return ParseDueDate(s)
}

// UnmarshalJSON decodes a TaskInput, accepting either due date form.
func (in *TaskInput) UnmarshalJSON(data []byte) error {
	type alias TaskInput
	aux := struct {
		*alias
		DueDate json.RawMessage `json:"dueDate"`
	}{alias: (*alias)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	due, err := decodeDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	in.DueDate = due
	return nil
}

// UnmarshalJSON decodes a TaskPatch, accepting either due date form.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type alias TaskPatch
	aux := struct {
		*alias
		DueDate json.RawMessage `json:"dueDate"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	due, err := decodeDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	p.DueDate = due
	return nil
}

// GetOwnerID returns the owning user's id.
func (t *Task) GetOwnerID() uuid.UUID { return t.OwnerID }
