// Package api provides HTTP handlers for the API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   uuid.UUID  `json:"projectId"   validate:"required"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
}

// UpdateTaskRequest represents the request body for partially updating a
// task. Omitted fields are left untouched. An explicit null for dueDate or
// assigneeId clears the field, which is why presence is tracked separately
// from the decoded values.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   *uuid.UUID `json:"projectId"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`

	dueDatePresent  bool
	assigneePresent bool
}

// UnmarshalJSON decodes the update body and records which keys were present,
// so "assigneeId": null can be told apart from an absent assigneeId.
func (req *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateTaskRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*req = UpdateTaskRequest(a)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, req.dueDatePresent = keys["dueDate"]
	_, req.assigneePresent = keys["assigneeId"]
	return nil
}

// ListTasks handles GET /tasks requests. Query parameters narrow the result
// set; every supplied parameter must match (AND semantics).
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	filter, err := parseListFilter(r)
	if err != nil {
		log.Debug("invalid list filter", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Debug("invalid task ID format", slog.String("task_id", chi.URLParam(r, "id")))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		log.Debug("request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Title and projectId are required")
		return
	}

	status, priority, err := parseEnums(req.Status, req.Priority)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	task, err := domain.NewTask(
		req.Title,
		req.Description,
		status,
		priority,
		req.DueDate,
		req.ProjectID,
		req.AssigneeID,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	created, err := h.taskService.CreateTask(r.Context(), task)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// UpdateTask handles PATCH /tasks/{id} requests.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Debug("invalid task ID format", slog.String("task_id", chi.URLParam(r, "id")))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	updated, err := h.taskService.UpdateTask(r.Context(), id, update)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

// toUpdate converts the request into a domain update, parsing enum values.
func (req *UpdateTaskRequest) toUpdate() (domain.TaskUpdate, error) {
	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		SetDueDate:  req.dueDatePresent,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		SetAssignee: req.assigneePresent,
	}

	if req.Status != nil {
		status, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		update.Status = &status
	}
	if req.Priority != nil {
		priority, err := domain.ParseTaskPriority(*req.Priority)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		update.Priority = &priority
	}

	return update, nil
}

// parseEnums parses optional status and priority strings, leaving defaults
// to the domain layer when they are empty.
func parseEnums(statusStr, priorityStr string) (domain.TaskStatus, domain.TaskPriority, error) {
	var (
		status   domain.TaskStatus
		priority domain.TaskPriority
		err      error
	)
	if statusStr != "" {
		if status, err = domain.ParseTaskStatus(statusStr); err != nil {
			return "", "", err
		}
	}
	if priorityStr != "" {
		if priority, err = domain.ParseTaskPriority(priorityStr); err != nil {
			return "", "", err
		}
	}
	return status, priority, nil
}

// parseListFilter builds a TaskFilter from list query parameters.
func parseListFilter(r *http.Request) (domain.TaskFilter, error) {
	var filter domain.TaskFilter
	query := r.URL.Query()

	if v := query.Get("status"); v != "" {
		status, err := domain.ParseTaskStatus(v)
		if err != nil {
			return domain.TaskFilter{}, err
		}
		filter.Status = &status
	}
	if v := query.Get("priority"); v != "" {
		priority, err := domain.ParseTaskPriority(v)
		if err != nil {
			return domain.TaskFilter{}, err
		}
		filter.Priority = &priority
	}
	if v := query.Get("projectId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return domain.TaskFilter{}, domain.NewValidationError("projectId", "must be a valid UUID", domain.ErrInvalidID)
		}
		filter.ProjectID = &id
	}
	if v := query.Get("assigneeId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return domain.TaskFilter{}, domain.NewValidationError("assigneeId", "must be a valid UUID", domain.ErrInvalidID)
		}
		filter.AssigneeID = &id
	}
	if v := query.Get("dueFrom"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.TaskFilter{}, domain.NewValidationError("dueFrom", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.DueFrom = &ts
	}
	if v := query.Get("dueTo"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.TaskFilter{}, domain.NewValidationError("dueTo", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.DueTo = &ts
	}

	return filter, filter.Validate()
}
