package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// WithTx returns a new TaskStore instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx}
}

// taskSelect is the shared projection for task reads. The project join is
// inner (tasks always belong to a project); the assignee join is left so
// unassigned tasks still come back.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
	       t.project_id, t.assignee_id, t.created_at, t.updated_at,
	       p.name,
	       u.email, u.name
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	LEFT JOIN users u ON u.id = t.assignee_id
`

// taskOrder keeps result sequences stable across identical queries:
// creation order, with the ID as a tie-break for equal timestamps.
const taskOrder = " ORDER BY t.created_at, t.id"

// List retrieves every task matching the filter with relations embedded.
func (s *PostgresTaskStore) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	where, args := buildListFilter(filter)

	rows, err := s.db.QueryContext(ctx, taskSelect+where+taskOrder, args...)
	if err != nil {
		log.Error("failed to query tasks", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "error", err)
		return nil, fmt.Errorf("error iterating task rows: %w", MapError(err))
	}

	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetByID retrieves a single task with relations embedded.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, taskSelect+" WHERE t.id = $1", id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	if err := s.attachTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}

	return task, nil
}

// Create saves a new task and returns it re-read with embedded relations.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date,
		                   project_id, assignee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.ProjectID,
		nullableUUID(task.AssigneeID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"error", err)
		return nil, store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	return s.GetByID(ctx, task.ID)
}

// Update applies a partial update and returns the task re-read with
// embedded relations. Returns store.ErrTaskNotFound if the task does not
// exist. The read-merge-write sequence runs inside a transaction when the
// store holds a *sql.DB; concurrent updates are last-write-wins beyond
// that, the store does not version rows.
func (s *PostgresTaskStore) Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	db, ok := s.db.(*sql.DB)
	if !ok {
		// Already inside a caller-managed transaction.
		return s.update(ctx, id, update)
	}

	var task *domain.Task
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		task, txErr = (&PostgresTaskStore{db: tx}).update(ctx, id, update)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *PostgresTaskStore) update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := task.Apply(update); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    due_date = $5, project_id = $6, assignee_id = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.ProjectID,
		nullableUUID(task.AssigneeID),
		task.UpdatedAt,
		id,
	)
	if err != nil {
		log.Error("failed to update task",
			"task_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to update task: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, store.ErrTaskNotFound
	}

	return s.GetByID(ctx, id)
}

// buildListFilter translates a TaskFilter into a WHERE clause with numbered
// placeholders. Returns an empty clause when no predicate is supplied.
// Supplied predicates combine with AND; due-date bounds are inclusive and a
// NULL due date fails any range predicate by SQL comparison semantics.
func buildListFilter(filter domain.TaskFilter) (string, []any) {
	conditions := make([]string, 0, 6)
	args := make([]any, 0, 6)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conditions = append(conditions, "t.status = "+arg(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "t.priority = "+arg(*filter.Priority))
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "t.project_id = "+arg(*filter.ProjectID))
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, "t.assignee_id = "+arg(*filter.AssigneeID))
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, "t.due_date >= "+arg(filter.DueFrom.UTC()))
	}
	if filter.DueTo != nil {
		conditions = append(conditions, "t.due_date <= "+arg(filter.DueTo.UTC()))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row from the shared taskSelect projection and
// assembles the embedded project and assignee.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task          domain.Task
		dueDate       sql.NullTime
		assigneeID    uuid.NullUUID
		projectName   string
		assigneeEmail sql.NullString
		assigneeName  sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&dueDate,
		&task.ProjectID,
		&assigneeID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&projectName,
		&assigneeEmail,
		&assigneeName,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}
	task.Project = &domain.Project{ID: task.ProjectID, Name: projectName}
	if assigneeID.Valid {
		id := assigneeID.UUID
		task.AssigneeID = &id
		task.Assignee = &domain.User{
			ID:    id,
			Email: assigneeEmail.String,
			Name:  assigneeName.String,
		}
	}
	task.Tags = []domain.Tag{}

	return &task, nil
}

// attachTags loads the tag associations for the given tasks in one query
// and distributes them. Tasks without tags keep their empty (non-nil) slice.
func (s *PostgresTaskStore) attachTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)

	placeholders := make([]string, len(tasks))
	args := make([]any, len(tasks))
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	for i, task := range tasks {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = task.ID
		byID[task.ID] = task
	}

	query := `
		SELECT tt.task_id, g.id, g.label
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY g.label, g.id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query task tags", "error", err)
		return fmt.Errorf("failed to query task tags: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var taskID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.Label); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.Tags = append(task.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tag rows: %w", MapError(err))
	}

	return nil
}

// nullableUUID converts an optional UUID reference into its SQL representation.
func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
