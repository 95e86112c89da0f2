package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/jobs"
	"github.com/taskhub/taskhub-api/internal/store"
)

// PostgresJobStore implements the jobs.JobStore interface using PostgreSQL.
// Rows are rehydrated into executable jobs through a jobs.Registry so that
// recovered jobs regain the behavior of their kind.
type PostgresJobStore struct {
	db       store.DBTX
	registry jobs.Registry
	logger   *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, registry jobs.Registry, logger *slog.Logger) *PostgresJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:       db,
		registry: registry,
		logger:   logger.With(slog.String("component", "postgres_job_store")),
	}
}

var _ jobs.JobStore = (*PostgresJobStore)(nil)

// SaveJob persists a job to the notification_jobs table.
func (s *PostgresJobStore) SaveJob(ctx context.Context, job jobs.Job) error {
	payload := job.Payload()
	if payload == nil {
		payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_jobs (id, job_type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())`,
		job.ID(), job.Type(), payload, string(job.Status()),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", MapError(err))
	}
	return nil
}

// UpdateJobStatus updates the status and error message of a job.
func (s *PostgresJobStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status jobs.JobStatus, errorMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_jobs
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3`,
		string(status), errorMsg, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementJobAttempts bumps the attempt counter and returns the new value.
func (s *PostgresJobStore) IncrementJobAttempts(ctx context.Context, jobID uuid.UUID) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx, `
		UPDATE notification_jobs
		SET attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING attempts`,
		jobID,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment job attempts: %w", MapError(err))
	}
	return attempts, nil
}

// GetPendingJobs retrieves all jobs with "pending" status.
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]jobs.Job, error) {
	return s.queryJobs(ctx, `
		SELECT id, job_type, payload, status
		FROM notification_jobs
		WHERE status = $1
		ORDER BY created_at`,
		string(jobs.JobStatusPending),
	)
}

// GetProcessingJobs retrieves jobs with "processing" status, optionally
// only those that have been in that state longer than olderThan.
func (s *PostgresJobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]jobs.Job, error) {
	if olderThan > 0 {
		return s.queryJobs(ctx, `
			SELECT id, job_type, payload, status
			FROM notification_jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at`,
			string(jobs.JobStatusProcessing), time.Now().Add(-olderThan),
		)
	}
	return s.queryJobs(ctx, `
		SELECT id, job_type, payload, status
		FROM notification_jobs
		WHERE status = $1
		ORDER BY created_at`,
		string(jobs.JobStatusProcessing),
	)
}

// queryJobs runs a job query and rehydrates each row through the registry.
// Rows whose kind has no registered factory, or whose payload no longer
// decodes, are skipped with a log entry rather than blocking recovery of
// the rest.
func (s *PostgresJobStore) queryJobs(ctx context.Context, query string, args ...any) ([]jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []jobs.Job
	for rows.Next() {
		var (
			id      uuid.UUID
			jobType string
			payload []byte
			status  string
		)
		if err := rows.Scan(&id, &jobType, &payload, &status); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}

		factory, ok := s.registry[jobType]
		if !ok {
			s.logger.Warn("no factory registered for job type, skipping",
				"job_id", id,
				"job_type", jobType)
			continue
		}

		job, err := factory(id, payload, jobs.JobStatus(status))
		if err != nil {
			s.logger.Error("failed to rebuild job from row, skipping",
				"job_id", id,
				"job_type", jobType,
				"error", err)
			continue
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}

	return out, nil
}
