package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// Submitter accepts jobs for background processing. Satisfied by JobRunner.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// AssignmentNotifier builds assignment email jobs and hands them to a
// Submitter. It is the glue between the service layer, which knows about
// assignment changes, and the job pipeline, which knows about delivery.
type AssignmentNotifier struct {
	submitter Submitter
	sender    EmailSender
	logger    *slog.Logger
}

// NewAssignmentNotifier creates an AssignmentNotifier.
func NewAssignmentNotifier(submitter Submitter, sender EmailSender, logger *slog.Logger) (*AssignmentNotifier, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if sender == nil {
		return nil, ErrNilEmailSender
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentNotifier{
		submitter: submitter,
		sender:    sender,
		logger:    logger.With(slog.String("component", "assignment_notifier")),
	}, nil
}

// NotifyAssignment enqueues an email notifying the assignee about the task.
func (n *AssignmentNotifier) NotifyAssignment(ctx context.Context, assigneeEmail, taskTitle string) error {
	job, err := NewAssignmentEmailJob(assigneeEmail, taskTitle, n.sender, n.logger)
	if err != nil {
		return fmt.Errorf("failed to build assignment email job: %w", err)
	}

	if err := n.submitter.Submit(ctx, job); err != nil {
		return fmt.Errorf("failed to submit assignment email job: %w", err)
	}

	n.logger.Debug("assignment notification enqueued",
		"job_id", job.ID(),
		"recipient", assigneeEmail)
	return nil
}
