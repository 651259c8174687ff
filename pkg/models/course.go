package models

import (
	"time"

	"github.com/google/uuid"
)

// Course groups the materials a user uploads for one subject.
type Course struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseInput holds client-supplied fields for creating a course.
type CourseInput struct {
	Name        string `json:"name" validate:"notblank,nonul,max=200"`
	Description string `json:"description" validate:"nonul,max=5000"`
}

// CourseDetail is a course together with its materials.
type CourseDetail struct {
	*Course
	Materials []*Material `json:"materials"`
}

// GetOwnerID returns the owning user's id.
func (c *Course) GetOwnerID() uuid.UUID { return c.OwnerID }
