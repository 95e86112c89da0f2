package domain

import "github.com/google/uuid"

// User is a person who can be assigned tasks. The core reads users for
// assignee existence checks, response embedding, and to resolve the
// notification recipient address.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}
