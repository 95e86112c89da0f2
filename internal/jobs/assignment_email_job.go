package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Common errors for assignment email jobs.
var (
	ErrNilEmailSender = errors.New("email sender cannot be nil")
	ErrEmptyRecipient = errors.New("assignee email cannot be empty")
)

// EmailSender defines the notification action invoked when an assignment
// email job is processed. Implementations must be safe to invoke more than
// once for the same logical assignment; the queue delivers at-least-once.
type EmailSender interface {
	// SendTaskAssignmentNotification emails the recipient that the named
	// task was assigned to them.
	SendTaskAssignmentNotification(ctx context.Context, recipient, taskTitle string) error
}

// assignmentEmailPayload is the serialized form stored with the job.
type assignmentEmailPayload struct {
	AssigneeEmail string `json:"assigneeEmail"`
	TaskTitle     string `json:"taskTitle"`
}

// AssignmentEmailJob implements the Job interface for notifying a user
// that a task was assigned to them.
type AssignmentEmailJob struct {
	id      uuid.UUID
	payload assignmentEmailPayload
	sender  EmailSender
	logger  *slog.Logger
	status  JobStatus
}

var _ Job = (*AssignmentEmailJob)(nil)

// NewAssignmentEmailJob creates a new assignment email job.
func NewAssignmentEmailJob(
	assigneeEmail, taskTitle string,
	sender EmailSender,
	logger *slog.Logger,
) (*AssignmentEmailJob, error) {
	if sender == nil {
		return nil, ErrNilEmailSender
	}
	if assigneeEmail == "" {
		return nil, ErrEmptyRecipient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AssignmentEmailJob{
		id: uuid.New(),
		payload: assignmentEmailPayload{
			AssigneeEmail: assigneeEmail,
			TaskTitle:     taskTitle,
		},
		sender: sender,
		logger: logger.With(slog.String("component", "assignment_email_job")),
		status: JobStatusPending,
	}, nil
}

// AssignmentEmailJobFactory returns the Factory that rebuilds assignment
// email jobs recovered from the store, binding them to the given sender.
func AssignmentEmailJobFactory(sender EmailSender, logger *slog.Logger) Factory {
	return func(id uuid.UUID, payload []byte, status JobStatus) (Job, error) {
		if sender == nil {
			return nil, ErrNilEmailSender
		}
		if logger == nil {
			logger = slog.Default()
		}

		var p assignmentEmailPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to decode assignment email payload: %w", err)
		}

		return &AssignmentEmailJob{
			id:      id,
			payload: p,
			sender:  sender,
			logger:  logger.With(slog.String("component", "assignment_email_job")),
			status:  status,
		}, nil
	}
}

// ID returns the job's unique identifier.
func (j *AssignmentEmailJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job kind identifier.
func (j *AssignmentEmailJob) Type() string {
	return JobTypeAssignmentEmail
}

// Payload returns the job data as a byte slice.
func (j *AssignmentEmailJob) Payload() []byte {
	data, err := json.Marshal(j.payload)
	if err != nil {
		// Marshalling a struct of two strings cannot fail at runtime.
		j.logger.Error("failed to marshal assignment email payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current job status.
func (j *AssignmentEmailJob) Status() JobStatus {
	return j.status
}

// Execute sends the notification email. A duplicate notification is
// tolerable; a lost one is not, so Execute reports transport errors back
// to the runner for retry instead of swallowing them.
func (j *AssignmentEmailJob) Execute(ctx context.Context) error {
	j.logger.Debug("sending assignment notification",
		"recipient", j.payload.AssigneeEmail,
		"task_title", j.payload.TaskTitle)

	if err := j.sender.SendTaskAssignmentNotification(ctx, j.payload.AssigneeEmail, j.payload.TaskTitle); err != nil {
		return fmt.Errorf("failed to send assignment notification: %w", err)
	}
	return nil
}
