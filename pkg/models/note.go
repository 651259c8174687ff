package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a free-form study note owned by one user.
type Note struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteInput holds client-supplied fields for creating a note.
type NoteInput struct {
	Title   string   `json:"title" validate:"notblank,nonul,max=500"`
	Content string   `json:"content" validate:"nonul"`
	Tags    []string `json:"tags" validate:"max=50,dive,nonul,max=64"`
}

// NotePatch is a partial note update. Nil fields are left unchanged;
// a non-nil empty Tags clears the tags.
type NotePatch struct {
	Title   *string  `json:"title" validate:"omitnil,notblank,nonul,max=500"`
	Content *string  `json:"content" validate:"omitnil,nonul"`
	Tags    []string `json:"tags" validate:"omitempty,max=50,dive,nonul,max=64"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// NormalizeTags trims tags, drops empties and removes duplicates,
// keeping the first occurrence. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// GetOwnerID returns the owning user's id.
func (n *Note) GetOwnerID() uuid.UUID { return n.OwnerID }
