package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

// fakeTaskService records calls and returns canned results.
type fakeTaskService struct {
	listFilter domain.TaskFilter
	listResult []*domain.Task
	listErr    error

	getResult *domain.Task
	getErr    error

	createdTask  *domain.Task
	createResult *domain.Task
	createErr    error

	updateID     uuid.UUID
	update       domain.TaskUpdate
	updateResult *domain.Task
	updateErr    error
}

func (f *fakeTaskService) ListTasks(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	f.listFilter = filter
	return f.listResult, f.listErr
}

func (f *fakeTaskService) GetTask(context.Context, uuid.UUID) (*domain.Task, error) {
	return f.getResult, f.getErr
}

func (f *fakeTaskService) CreateTask(_ context.Context, task *domain.Task) (*domain.Task, error) {
	f.createdTask = task
	if f.createResult != nil || f.createErr != nil {
		return f.createResult, f.createErr
	}
	return task, nil
}

func (f *fakeTaskService) UpdateTask(_ context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	f.updateID = id
	f.update = update
	return f.updateResult, f.updateErr
}

var _ service.TaskService = (*fakeTaskService)(nil)

func newTestRouter(svc service.TaskService) http.Handler {
	handler := NewTaskHandler(svc, slog.Default())
	r := chi.NewRouter()
	r.Get("/api/tasks", handler.ListTasks)
	r.Post("/api/tasks", handler.CreateTask)
	r.Get("/api/tasks/{id}", handler.GetTask)
	r.Patch("/api/tasks/{id}", handler.UpdateTask)
	return r
}

func sampleTask() *domain.Task {
	projectID := uuid.New()
	assigneeID := uuid.New()
	due := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:          uuid.New(),
		Title:       "Fix login bug",
		Description: "Users cannot sign in",
		Status:      domain.TaskStatusInProgress,
		Priority:    domain.TaskPriorityHigh,
		DueDate:     &due,
		ProjectID:   projectID,
		AssigneeID:  &assigneeID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		Project:     &domain.Project{ID: projectID, Name: "Backend"},
		Assignee:    &domain.User{ID: assigneeID, Email: "alice@example.com", Name: "Alice"},
		Tags:        []domain.Tag{{ID: uuid.New(), Label: "bug"}},
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	t.Run("returns tasks with camelCase fields", func(t *testing.T) {
		t.Parallel()

		task := sampleTask()
		svc := &fakeTaskService{listResult: []*domain.Task{task}}

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
		require.Len(t, decoded, 1)

		body := decoded[0]
		assert.Equal(t, task.ID.String(), body["id"])
		assert.Equal(t, "IN_PROGRESS", body["status"])
		assert.Equal(t, "HIGH", body["priority"])
		assert.Contains(t, body, "dueDate")
		assert.Contains(t, body, "projectId")
		assert.Contains(t, body, "assigneeId")

		project, ok := body["project"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Backend", project["name"])

		assignee, ok := body["assignee"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", assignee["email"])
	})

	t.Run("passes query parameters through as filter", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{listResult: []*domain.Task{}}
		projectID := uuid.New()

		url := "/api/tasks?status=todo&priority=HIGH&projectId=" + projectID.String() +
			"&dueFrom=2026-04-01T00:00:00Z&dueTo=2026-04-30T23:59:59Z"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		require.NotNil(t, svc.listFilter.Status)
		assert.Equal(t, domain.TaskStatusTodo, *svc.listFilter.Status)
		require.NotNil(t, svc.listFilter.Priority)
		assert.Equal(t, domain.TaskPriorityHigh, *svc.listFilter.Priority)
		require.NotNil(t, svc.listFilter.ProjectID)
		assert.Equal(t, projectID, *svc.listFilter.ProjectID)
		require.NotNil(t, svc.listFilter.DueFrom)
		require.NotNil(t, svc.listFilter.DueTo)
		assert.Nil(t, svc.listFilter.AssigneeID)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=DONE", nil)
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects inverted due range", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet,
			"/api/tasks?dueFrom=2026-04-30T00:00:00Z&dueTo=2026-04-01T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed timestamp", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/tasks?dueFrom=tomorrow", nil)
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty result is a JSON array", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{listResult: []*domain.Task{}}
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	t.Run("returns task", func(t *testing.T) {
		t.Parallel()

		task := sampleTask()
		svc := &fakeTaskService{getResult: task}

		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID.String(), nil)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, task.ID.String(), body["id"])
	})

	t.Run("invalid ID format", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/tasks/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			getErr: service.NewTaskServiceError("get", "failed to get task", store.ErrTaskNotFound),
		}
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Task not found", body["error"])
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	t.Run("creates task with defaults", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{}
		projectID := uuid.New()

		payload := map[string]any{
			"title":     "Write docs",
			"projectId": projectID.String(),
		}
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, svc.createdTask)
		assert.Equal(t, "Write docs", svc.createdTask.Title)
		assert.Equal(t, domain.TaskStatusTodo, svc.createdTask.Status)
		assert.Equal(t, domain.TaskPriorityMedium, svc.createdTask.Priority)
		assert.Equal(t, projectID, svc.createdTask.ProjectID)
		assert.Nil(t, svc.createdTask.AssigneeID)
	})

	t.Run("missing title", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"projectId":"` + uuid.NewString() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown priority", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"title":"x","projectId":"` + uuid.NewString() + `","priority":"CRITICAL"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown project maps to 404", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			createErr: service.NewTaskServiceError("create", "referenced entity not found", store.ErrProjectNotFound),
		}
		body := []byte(`{"title":"x","projectId":"` + uuid.NewString() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	t.Run("partial update touches only supplied fields", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{updateResult: sampleTask()}
		id := uuid.New()

		body := []byte(`{"status":"completed"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+id.String(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, svc.updateID)

		require.NotNil(t, svc.update.Status)
		assert.Equal(t, domain.TaskStatusCompleted, *svc.update.Status)
		assert.Nil(t, svc.update.Title)
		assert.False(t, svc.update.SetDueDate)
		assert.False(t, svc.update.SetAssignee)
	})

	t.Run("explicit null assigneeId unassigns", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{updateResult: sampleTask()}

		body := []byte(`{"assigneeId":null}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+uuid.NewString(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.update.SetAssignee)
		assert.Nil(t, svc.update.AssigneeID)
	})

	t.Run("supplied assigneeId assigns", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{updateResult: sampleTask()}
		assigneeID := uuid.New()

		body := []byte(`{"assigneeId":"` + assigneeID.String() + `"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+uuid.NewString(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.update.SetAssignee)
		require.NotNil(t, svc.update.AssigneeID)
		assert.Equal(t, assigneeID, *svc.update.AssigneeID)
	})

	t.Run("explicit null dueDate clears it", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{updateResult: sampleTask()}

		body := []byte(`{"dueDate":null}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+uuid.NewString(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.update.SetDueDate)
		assert.Nil(t, svc.update.DueDate)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"status":"DONE"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+uuid.NewString(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTaskService{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			updateErr: service.NewTaskServiceError("update", "failed to update task", store.ErrTaskNotFound),
		}
		body := []byte(`{"title":"new"}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+uuid.NewString(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
