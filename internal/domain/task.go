package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Known workflow states.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// TaskPriority represents the urgency level of a task.
type TaskPriority string

// Known priority levels.
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// ParseTaskStatus converts a string into a TaskStatus.
// Returns ErrInvalidStatus if the value is not a known workflow state.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(strings.ToUpper(s)) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return TaskStatus(strings.ToUpper(s)), nil
	default:
		return "", NewValidationError("status", "unknown workflow state: "+s, ErrInvalidStatus)
	}
}

// ParseTaskPriority converts a string into a TaskPriority.
// Returns ErrInvalidPriority if the value is not a known priority level.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(strings.ToUpper(s)) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return TaskPriority(strings.ToUpper(s)), nil
	default:
		return "", NewValidationError("priority", "unknown priority level: "+s, ErrInvalidPriority)
	}
}

// Task represents a unit of work tracked by the system. A task always
// belongs to a project, may be assigned to a user, and carries zero or
// more tags. The Project/Assignee/Tags fields are read-side embeds
// resolved by the store; they are never written through the task itself.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	ProjectID   uuid.UUID    `json:"projectId"`
	AssigneeID  *uuid.UUID   `json:"assigneeId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	Project  *Project `json:"project,omitempty"`
	Assignee *User    `json:"assignee"`
	Tags     []Tag    `json:"tags"`
}

// NewTask creates a new Task with the given fields, applying defaults for
// omitted status (TODO) and priority (MEDIUM). Returns an error if
// validation fails.
func NewTask(
	title, description string,
	status TaskStatus,
	priority TaskPriority,
	dueDate *time.Time,
	projectID uuid.UUID,
	assigneeID *uuid.UUID,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		ProjectID:   projectID,
		AssigneeID:  assigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}

	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrValidation)
	}

	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		return err
	}

	if _, err := ParseTaskPriority(string(t.Priority)); err != nil {
		return err
	}

	if t.ProjectID == uuid.Nil {
		return NewValidationError("projectId", "cannot be empty", ErrInvalidID)
	}

	if t.AssigneeID != nil && *t.AssigneeID == uuid.Nil {
		return NewValidationError("assigneeId", "cannot be the nil UUID", ErrInvalidID)
	}

	return nil
}

// TaskUpdate describes a partial update to a task. Nil pointers mean the
// field is untouched. Because "clear the due date" and "unassign" are
// legitimate updates, DueDate and AssigneeID pair a pointer with a Set flag
// so that an explicit null can be told apart from an omitted field.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
	SetDueDate  bool
	ProjectID   *uuid.UUID
	AssigneeID  *uuid.UUID
	SetAssignee bool
}

// IsZero reports whether the update would change nothing.
func (u TaskUpdate) IsZero() bool {
	return u.Title == nil &&
		u.Description == nil &&
		u.Status == nil &&
		u.Priority == nil &&
		!u.SetDueDate &&
		u.ProjectID == nil &&
		!u.SetAssignee
}

// Apply merges the update into the task, leaving omitted fields unchanged,
// and refreshes the UpdatedAt timestamp. Returns an error if the resulting
// task fails validation; the task is left unmodified in that case.
func (t *Task) Apply(update TaskUpdate) error {
	merged := *t

	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.Status != nil {
		merged.Status = *update.Status
	}
	if update.Priority != nil {
		merged.Priority = *update.Priority
	}
	if update.SetDueDate {
		merged.DueDate = update.DueDate
	}
	if update.ProjectID != nil {
		merged.ProjectID = *update.ProjectID
	}
	if update.SetAssignee {
		merged.AssigneeID = update.AssigneeID
	}

	if err := merged.Validate(); err != nil {
		return err
	}

	merged.UpdatedAt = time.Now().UTC()
	*t = merged
	return nil
}

// TaskFilter narrows a task list query. Nil predicates are absent; supplied
// predicates combine with AND semantics. DueFrom/DueTo are inclusive bounds
// against the stored due date; tasks without a due date never match a
// range-filtered query.
type TaskFilter struct {
	Status     *TaskStatus
	Priority   *TaskPriority
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	DueFrom    *time.Time
	DueTo      *time.Time
}

// Validate checks the filter for contradictory bounds.
func (f TaskFilter) Validate() error {
	if f.DueFrom != nil && f.DueTo != nil && f.DueFrom.After(*f.DueTo) {
		return NewValidationError("dueDate", "range lower bound is after upper bound", ErrInvalidDueRange)
	}
	return nil
}

// IsZero reports whether no predicate is supplied.
func (f TaskFilter) IsZero() bool {
	return f.Status == nil &&
		f.Priority == nil &&
		f.ProjectID == nil &&
		f.AssigneeID == nil &&
		f.DueFrom == nil &&
		f.DueTo == nil
}

// Matches reports whether the task satisfies every supplied predicate.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.ProjectID != nil && t.ProjectID != *f.ProjectID {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.DueDate == nil {
			return false
		}
		if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return true
}
