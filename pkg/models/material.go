package models

import (
	"time"

	"github.com/google/uuid"
)

// Material is an uploaded course document with its extracted text.
type Material struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CourseID    uuid.UUID `json:"courseId"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	TextContent string    `json:"textContent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MaterialInput holds client-supplied fields for recording a material.
type MaterialInput struct {
	FileName    string `json:"fileName" validate:"notblank,nonul,max=500"`
	URL         string `json:"url" validate:"notblank,nonul,max=2000"`
	TextContent string `json:"textContent" validate:"nonul"`
}

// AggregatedMaterial is the concatenated text of a course's materials.
type AggregatedMaterial struct {
	Text          string `json:"text"`
	MaterialCount int    `json:"materialCount"`
	Truncated     bool   `json:"truncated"`
}
