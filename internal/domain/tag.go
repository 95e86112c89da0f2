package domain

import "github.com/google/uuid"

// Tag labels tasks; the association is many-to-many and read-only
// from the task write path.
type Tag struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}
