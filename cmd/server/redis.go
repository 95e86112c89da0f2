package main

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/taskhub/taskhub-api/internal/cache"
	"github.com/taskhub/taskhub-api/internal/config"
	platformredis "github.com/taskhub/taskhub-api/internal/platform/redis"
)

// setupTaskCache builds the distributed task cache. An empty Redis URL
// disables caching entirely; an unreachable Redis still yields a working
// cache, since the implementation degrades to pass-through on backend
// errors.
func setupTaskCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) cache.TaskCache {
	if cfg.RedisURL == "" {
		logger.Info("No Redis URL configured, task caching disabled")
		return cache.Nop{}
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Invalid Redis URL, task caching disabled", "error", err)
		return cache.Nop{}
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable at startup, cache will serve misses until it recovers",
			"error", err)
	} else {
		logger.Info("Redis connection established", "ttl", cfg.TTL)
	}

	return platformredis.NewTaskCache(client, cfg.TTL, logger)
}
