package domain

import "github.com/google/uuid"

// Project groups related tasks. The core only reads projects for
// existence checks and for embedding into task responses.
type Project struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
