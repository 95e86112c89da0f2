// Package redis implements the task cache on a Redis backend.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskhub/taskhub-api/internal/cache"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TaskCache is a Redis-backed implementation of cache.TaskCache.
//
// Every backend failure degrades to a cache miss (reads) or a skipped write
// (population), so callers fall through to the store without noticing. The
// TTL is a safety net only; invalidation on write is the primary
// consistency mechanism.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ cache.TaskCache = (*TaskCache)(nil)

// NewTaskCache creates a TaskCache using the provided Redis client and TTL.
// A nil client or zero TTL yields a cache that never populates, which
// behaves like cache.Nop.
func NewTaskCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *TaskCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TaskCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "task_cache")),
	}
}

// GetList returns the cached result set for a list-query key.
func (c *TaskCache) GetList(ctx context.Context, key string) ([]*domain.Task, bool) {
	data, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}

	var tasks []*domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// An unreadable entry is worse than a miss; drop it.
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.delete(ctx, key)
		return nil, false
	}
	if tasks == nil {
		// An empty list round-trips as null; it is still a valid hit.
		tasks = []*domain.Task{}
	}
	return tasks, true
}

// SetList stores a result set under a list-query key.
func (c *TaskCache) SetList(ctx context.Context, key string, tasks []*domain.Task) {
	c.storeJSON(ctx, key, tasks)
}

// GetTask returns the cached task for an id-keyed entry.
func (c *TaskCache) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, bool) {
	key := cache.TaskKey(id)
	data, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.delete(ctx, key)
		return nil, false
	}
	return &task, true
}

// SetTask stores a task under its id-keyed entry.
func (c *TaskCache) SetTask(ctx context.Context, task *domain.Task) {
	if task == nil {
		return
	}
	c.storeJSON(ctx, cache.TaskKey(task.ID), task)
}

// DeleteTask removes the id-keyed entry for the given task.
// Deleting an absent entry is a no-op.
func (c *TaskCache) DeleteTask(ctx context.Context, id uuid.UUID) {
	c.delete(ctx, cache.TaskKey(id))
}

// InvalidateLists removes every list-query entry. Any predicate combination
// could be affected by a write, so the whole namespace is swept by prefix.
// Failures are logged and swallowed; the TTL bounds how long a stale entry
// can outlive a failed invalidation.
func (c *TaskCache) InvalidateLists(ctx context.Context) {
	if c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, cache.ListKeyPrefix+"*", 0).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("list cache invalidation scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("list cache invalidation failed", "keys", len(keys), "error", err)
	}
}

// Close releases the Redis connection.
func (c *TaskCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *TaskCache) load(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed, falling back to store", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *TaskCache) storeJSON(ctx context.Context, key string, value any) {
	if c.client == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed, skipping population", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed, skipping population", "key", key, "error", err)
	}
}

func (c *TaskCache) delete(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}
