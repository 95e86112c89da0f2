package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TASKHUB_DATABASE_URL", "postgres://localhost:5432/taskhub?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Queue.WorkerCount)
	assert.Equal(t, 100, cfg.Queue.QueueSize)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Queue.RetryBackoff)
	assert.Equal(t, 587, cfg.Email.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKHUB_DATABASE_URL", "postgres://localhost:5432/taskhub?sslmode=disable")
	t.Setenv("TASKHUB_SERVER_PORT", "9090")
	t.Setenv("TASKHUB_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKHUB_CACHE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TASKHUB_QUEUE_WORKER_COUNT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("TASKHUB_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	t.Setenv("TASKHUB_DATABASE_URL", "postgres://localhost:5432/taskhub?sslmode=disable")
	t.Setenv("TASKHUB_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
