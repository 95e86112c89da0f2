package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Implementations return tasks with Project, Assignee, and Tags embedded
// so callers never issue follow-up lookups for the response shape.
type TaskStore interface {
	// List retrieves every task matching the filter, combining supplied
	// predicates with AND semantics. Results are ordered by creation time
	// (ties broken by ID) so identical queries return identical sequences.
	List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create saves a new task to the store. The task must be valid
	// according to domain validation rules. The stored row is re-read so
	// the returned task carries its embedded relations.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Update applies a partial update to an existing task and returns the
	// updated task with embedded relations.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically via store.RunInTransaction.
	WithTx(tx *sql.Tx) TaskStore
}

// ProjectStore provides read access to projects. The task write path only
// needs existence checks and response embedding.
type ProjectStore interface {
	// GetByID retrieves a project by its unique ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
}

// UserStore provides read access to users referenced as task assignees.
type UserStore interface {
	// GetByID retrieves a user by its unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
