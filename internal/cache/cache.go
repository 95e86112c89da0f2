// Package cache defines the task cache capability consumed by the service
// layer, plus the deterministic key derivation shared by implementations.
//
// The cache is a performance and consistency aid, never a source of truth.
// Implementations absorb backend failures: a broken cache behaves like an
// empty one, and population is skipped while degraded so stale or partial
// data is never written.
package cache

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TaskCache fronts read queries against the task store.
//
// Get methods return a miss indicator distinct from an empty result: an
// empty cached list is a valid hit. Delete and invalidate operations are
// idempotent; removing an absent entry is a no-op.
type TaskCache interface {
	// GetList returns the cached result set for a list-query key.
	GetList(ctx context.Context, key string) ([]*domain.Task, bool)

	// SetList stores a result set under a list-query key.
	SetList(ctx context.Context, key string, tasks []*domain.Task)

	// GetTask returns the cached task for an id-keyed entry.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, bool)

	// SetTask stores a task under its id-keyed entry.
	SetTask(ctx context.Context, task *domain.Task)

	// DeleteTask removes the id-keyed entry for the given task.
	DeleteTask(ctx context.Context, id uuid.UUID)

	// InvalidateLists removes every list-query entry regardless of its
	// specific filter values.
	InvalidateLists(ctx context.Context)

	// Close releases the cache connection. Invoked once at process shutdown.
	Close() error
}

// Nop is a TaskCache that caches nothing. It stands in when no cache
// backend is configured and in tests that exercise the uncached path.
type Nop struct{}

var _ TaskCache = Nop{}

func (Nop) GetList(context.Context, string) ([]*domain.Task, bool)  { return nil, false }
func (Nop) SetList(context.Context, string, []*domain.Task)         {}
func (Nop) GetTask(context.Context, uuid.UUID) (*domain.Task, bool) { return nil, false }
func (Nop) SetTask(context.Context, *domain.Task)                   {}
func (Nop) DeleteTask(context.Context, uuid.UUID)                   {}
func (Nop) InvalidateLists(context.Context)                         {}
func (Nop) Close() error                                            { return nil }
