package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent projects a dated task onto a calendar.
type CalendarEvent struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"allDay"`
	Resource *Task     `json:"resource"`
}

// NewCalendarEvent builds an all-day event for a task with a due date.
// Returns nil if the task has no due date.
func NewCalendarEvent(task *Task) *CalendarEvent {
	if task.DueDate == nil {
		return nil
	}
	return &CalendarEvent{
		ID:       task.ID,
		Title:    task.Title,
		Start:    *task.DueDate,
		End:      *task.DueDate,
		AllDay:   true,
		Resource: task,
	}
}
