package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/cache"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// AssignmentNotifier dispatches an assignment notification for later
// delivery. Implementations enqueue rather than send; a returned error
// means the notification could not even be queued.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, assigneeEmail, taskTitle string) error
}

// TaskService provides task operations for the API layer.
type TaskService interface {
	// ListTasks returns every task matching the filter, served from cache
	// when a previous identical query populated it.
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// GetTask retrieves a single task by ID.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// CreateTask persists a new task. If the task is created with an
	// assignee, an assignment notification is enqueued.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// UpdateTask applies a partial update. If the update assigns the task
	// to a different user, an assignment notification is enqueued.
	UpdateTask(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks    store.TaskStore
	projects store.ProjectStore
	users    store.UserStore
	cache    cache.TaskCache
	notifier AssignmentNotifier
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService.
// A nil taskCache disables caching; the other dependencies are required.
func NewTaskService(
	tasks store.TaskStore,
	projects store.ProjectStore,
	users store.UserStore,
	taskCache cache.TaskCache,
	notifier AssignmentNotifier,
	log *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if taskCache == nil {
		taskCache = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		tasks:    tasks,
		projects: projects,
		users:    users,
		cache:    taskCache,
		notifier: notifier,
		logger:   log.With(slog.String("component", "task_service")),
	}, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := filter.Validate(); err != nil {
		return nil, NewTaskServiceError("list", "invalid filter", err)
	}

	key := cache.ListKey(filter)
	if tasks, ok := s.cache.GetList(ctx, key); ok {
		log.Debug("list query served from cache", "cache_key", key)
		return tasks, nil
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		log.Error("failed to list tasks", "error", err)
		return nil, NewTaskServiceError("list", "failed to query tasks", err)
	}

	s.cache.SetList(ctx, key, tasks)
	return tasks, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task, ok := s.cache.GetTask(ctx, id); ok {
		log.Debug("task served from cache", "task_id", id)
		return task, nil
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get", "failed to get task", err)
	}

	s.cache.SetTask(ctx, task)
	return task, nil
}

// CreateTask implements TaskService.CreateTask.
//
// The sequence is fixed: referenced entities are checked, the row is
// written, cache entries are invalidated, and only then is a notification
// enqueued. Cache and notification failures never fail a write that the
// store accepted.
func (s *taskServiceImpl) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkReferences(ctx, &task.ProjectID, task.AssigneeID); err != nil {
		return nil, NewTaskServiceError("create", "referenced entity not found", err)
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		log.Error("failed to create task", "error", err)
		return nil, NewTaskServiceError("create", "failed to create task", err)
	}

	s.invalidate(ctx, created.ID)

	if created.Assignee != nil {
		s.notifyAssignment(ctx, created)
	}

	log.Info("task created",
		"task_id", created.ID,
		"project_id", created.ProjectID)
	return created, nil
}

// UpdateTask implements TaskService.UpdateTask.
// An empty update is served as a plain read: no write, no invalidation,
// no notification.
func (s *taskServiceImpl) UpdateTask(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if update.IsZero() {
		return s.GetTask(ctx, id)
	}

	var newAssignee *uuid.UUID
	if update.SetAssignee {
		newAssignee = update.AssigneeID
	}
	if err := s.checkReferences(ctx, update.ProjectID, newAssignee); err != nil {
		return nil, NewTaskServiceError("update", "referenced entity not found", err)
	}

	// The pre-update read feeds the assignment-change decision below.
	prev, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("update", "failed to get task", err)
	}

	updated, err := s.tasks.Update(ctx, id, update)
	if err != nil {
		log.Error("failed to update task", "task_id", id, "error", err)
		return nil, NewTaskServiceError("update", "failed to update task", err)
	}

	s.invalidate(ctx, id)

	if assignmentChanged(prev, updated) {
		s.notifyAssignment(ctx, updated)
	}

	log.Info("task updated", "task_id", id)
	return updated, nil
}

// checkReferences verifies that the supplied project and assignee exist.
// The database foreign keys back this up; the explicit check turns a racy
// constraint violation into a precise not-found error in the common case.
func (s *taskServiceImpl) checkReferences(ctx context.Context, projectID, assigneeID *uuid.UUID) error {
	if projectID != nil {
		if _, err := s.projects.GetByID(ctx, *projectID); err != nil {
			return err
		}
	}
	if assigneeID != nil {
		if _, err := s.users.GetByID(ctx, *assigneeID); err != nil {
			return err
		}
	}
	return nil
}

// invalidate drops the task's cached entry and every cached list result.
// The detached context keeps invalidation running even when the request
// that triggered the write has already been cancelled; skipping it would
// leave readers seeing pre-write state past the TTL window.
func (s *taskServiceImpl) invalidate(ctx context.Context, id uuid.UUID) {
	dctx := context.WithoutCancel(ctx)
	s.cache.DeleteTask(dctx, id)
	s.cache.InvalidateLists(dctx)
}

// notifyAssignment enqueues an assignment notification. Enqueue failures
// are absorbed: the write already happened and must be reported as a
// success to the caller.
func (s *taskServiceImpl) notifyAssignment(ctx context.Context, task *domain.Task) {
	if task.Assignee == nil {
		return
	}
	if err := s.notifier.NotifyAssignment(context.WithoutCancel(ctx), task.Assignee.Email, task.Title); err != nil {
		s.logger.Warn("failed to enqueue assignment notification",
			"task_id", task.ID,
			"recipient", task.Assignee.Email,
			"error", err)
	}
}

// assignmentChanged reports whether the update assigned the task to a
// user who was not the assignee before. Unassignment never notifies.
func assignmentChanged(prev, updated *domain.Task) bool {
	if updated.AssigneeID == nil {
		return false
	}
	return prev.AssigneeID == nil || *prev.AssigneeID != *updated.AssigneeID
}
