package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskhub/taskhub-api/internal/cache"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/jobs"
	"github.com/taskhub/taskhub-api/internal/platform/email"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore    store.TaskStore
	projectStore store.ProjectStore
	userStore    store.UserStore

	taskCache cache.TaskCache

	jobStore  jobs.JobStore
	jobRunner *jobs.JobRunner

	taskService service.TaskService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies that must be established before
// application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.projectStore = postgres.NewPostgresProjectStore(db)
	app.userStore = postgres.NewPostgresUserStore(db)

	app.taskCache = setupTaskCache(ctx, cfg.Cache, logger)

	sender := setupEmailSender(cfg.Email, logger)

	registry := jobs.Registry{
		jobs.JobTypeAssignmentEmail: jobs.AssignmentEmailJobFactory(sender, logger),
	}
	app.jobStore = postgres.NewPostgresJobStore(db, registry, logger)

	var err error
	app.jobRunner, err = setupJobRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup job runner: %w", err)
	}

	notifier, err := jobs.NewAssignmentNotifier(app.jobRunner, sender, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment notifier: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.projectStore,
		app.userStore,
		app.taskCache,
		notifier,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupEmailSender picks the notification transport: SMTP when a host is
// configured, the log-only sender otherwise.
func setupEmailSender(cfg config.EmailConfig, logger *slog.Logger) jobs.EmailSender {
	if cfg.Host == "" {
		logger.Info("No SMTP host configured, assignment emails will be logged only")
		return email.NewLogSender(logger)
	}
	return email.NewSMTPSender(cfg, logger)
}

// setupJobRunner initializes and starts the background notification
// processor, recovering any jobs left unfinished by a previous run.
func setupJobRunner(app *application) (*jobs.JobRunner, error) {
	runner := jobs.NewJobRunner(app.jobStore, jobs.JobRunnerConfig{
		WorkerCount:  app.config.Queue.WorkerCount,
		QueueSize:    app.config.Queue.QueueSize,
		MaxAttempts:  app.config.Queue.MaxAttempts,
		RetryBackoff: app.config.Queue.RetryBackoff,
		StuckJobAge:  app.config.Queue.StuckJobAge,
	}, app.logger)

	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	return runner, nil
}

// cleanup handles graceful shutdown of application resources. The job
// runner stops first so in-flight notifications finish while the database
// and cache connections are still alive.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.taskCache != nil {
		if err := app.taskCache.Close(); err != nil {
			app.logger.Error("Error closing cache connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
