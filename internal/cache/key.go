package cache

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// Key namespaces. Every list-query entry lives under ListKeyPrefix so the
// whole namespace can be invalidated in one sweep; id-keyed entries live
// under TaskKeyPrefix and are invalidated individually.
const (
	ListKeyPrefix = "tasks:list:"
	TaskKeyPrefix = "tasks:id:"
)

// ListKey derives a deterministic cache key from a filter. Predicates are
// serialized in a fixed field order, so the same predicate set yields the
// same key no matter how the caller assembled it. Absent predicates are
// omitted entirely, which keeps "predicate absent" distinct from "predicate
// present with a zero value" (a present zero still serializes).
func ListKey(filter domain.TaskFilter) string {
	if filter.IsZero() {
		return ListKeyPrefix + "all"
	}

	parts := make([]string, 0, 6)
	if filter.Status != nil {
		parts = append(parts, "status="+string(*filter.Status))
	}
	if filter.Priority != nil {
		parts = append(parts, "priority="+string(*filter.Priority))
	}
	if filter.ProjectID != nil {
		parts = append(parts, "project="+filter.ProjectID.String())
	}
	if filter.AssigneeID != nil {
		parts = append(parts, "assignee="+filter.AssigneeID.String())
	}
	if filter.DueFrom != nil {
		parts = append(parts, "due_from="+filter.DueFrom.UTC().Format(time.RFC3339Nano))
	}
	if filter.DueTo != nil {
		parts = append(parts, "due_to="+filter.DueTo.UTC().Format(time.RFC3339Nano))
	}

	return ListKeyPrefix + strings.Join(parts, "&")
}

// TaskKey derives the id-keyed cache key for a single task.
func TaskKey(id uuid.UUID) string {
	return TaskKeyPrefix + id.String()
}
