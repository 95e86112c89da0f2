// Package jobs implements the durable background job pipeline used for
// asynchronous notification dispatch. Jobs are persisted before enqueue
// acknowledgment, processed by a worker pool, retried with backoff on
// failure, and parked in a failed state for inspection once retries are
// exhausted. Delivery is at-least-once; job actions must tolerate
// duplicate execution.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

// Possible job status values.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job type constants.
const (
	// JobTypeAssignmentEmail notifies a user that a task was assigned to them.
	JobTypeAssignmentEmail = "assignment_email"
)

// Job represents a unit of background work to be processed.
type Job interface {
	// ID returns the job's unique identifier.
	ID() uuid.UUID

	// Type returns the job kind identifier.
	Type() string

	// Payload returns the job data as a byte slice.
	Payload() []byte

	// Status returns the current job status.
	Status() JobStatus

	// Execute runs the job logic. Execute may be called more than once
	// for the same logical job and must tolerate duplicates.
	Execute(ctx context.Context) error
}

// Factory rebuilds an executable Job from its persisted form. Each job
// kind registers one factory so recovered rows regain their behavior.
type Factory func(id uuid.UUID, payload []byte, status JobStatus) (Job, error)

// Registry maps job kinds to their factories.
type Registry map[string]Factory

// JobStore defines the interface for persisting jobs. Persistence is what
// makes enqueue durable: a job row survives process restarts and is
// recovered into the queue on startup.
type JobStore interface {
	// SaveJob persists a job.
	SaveJob(ctx context.Context, job Job) error

	// UpdateJobStatus updates the status of a job, recording the error
	// message of the attempt that produced the transition.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error

	// IncrementJobAttempts bumps the job's attempt counter and returns
	// the new value.
	IncrementJobAttempts(ctx context.Context, jobID uuid.UUID) (int, error)

	// GetPendingJobs retrieves all jobs with "pending" status.
	GetPendingJobs(ctx context.Context) ([]Job, error)

	// GetProcessingJobs retrieves jobs with "processing" status.
	// If olderThan is non-zero, only returns jobs that have been in this
	// state longer than the specified duration.
	GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]Job, error)
}
