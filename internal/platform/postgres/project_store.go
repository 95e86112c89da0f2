package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresProjectStore implements the store.ProjectStore interface using PostgreSQL.
type PostgresProjectStore struct {
	db store.DBTX
}

// NewPostgresProjectStore creates a new PostgresProjectStore.
func NewPostgresProjectStore(db store.DBTX) *PostgresProjectStore {
	return &PostgresProjectStore{
		db: db,
	}
}

// GetByID retrieves a project by its unique ID.
// Returns store.ErrProjectNotFound if the project does not exist.
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM projects WHERE id = $1", id,
	).Scan(&project.ID, &project.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", MapError(err))
	}

	return &project, nil
}
