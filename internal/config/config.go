// Package config loads and validates application configuration.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Email    EmailConfig    `mapstructure:"email"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CacheConfig contains the distributed cache settings. The cache is an
// optional collaborator: an empty RedisURL disables it and every read goes
// straight to the store.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// QueueConfig contains the notification job queue settings.
type QueueConfig struct {
	WorkerCount  int           `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize    int           `mapstructure:"queue_size" validate:"required,gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"required,gt=0"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"min=0"`
	StuckJobAge  time.Duration `mapstructure:"stuck_job_age" validate:"min=0"`
}

// EmailConfig contains the SMTP settings for assignment notifications.
// An empty Host leaves notification emails logged rather than sent, which
// keeps local development from needing an SMTP server.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=0,lt=65536"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	Password string `mapstructure:"password"`
}
