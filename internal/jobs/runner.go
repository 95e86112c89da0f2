package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobRunnerConfig holds configuration for the job runner.
type JobRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue.
	QueueSize int

	// MaxAttempts bounds how often a failing job is retried before it is
	// parked in the failed state.
	MaxAttempts int

	// RetryBackoff is the base delay before a failed job is requeued.
	// The delay grows linearly with the attempt count.
	RetryBackoff time.Duration

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and reset.
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to 5 minutes.
	StuckJobCheckInterval time.Duration
}

// DefaultJobRunnerConfig returns a JobRunnerConfig with reasonable defaults.
func DefaultJobRunnerConfig() JobRunnerConfig {
	return JobRunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		MaxAttempts:           5,
		RetryBackoff:          30 * time.Second,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// JobRunner manages background job processing: a persistent store for
// durability, a bounded queue feeding a worker pool, crash recovery on
// start, bounded retries with backoff, and a stuck-job monitor.
type JobRunner struct {
	store      JobStore
	queue      *JobQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     JobRunnerConfig
	logger     *slog.Logger
}

// NewJobRunner creates a new JobRunner.
func NewJobRunner(store JobStore, config JobRunnerConfig, logger *slog.Logger) *JobRunner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &JobRunner{
		store:      store,
		queue:      NewJobQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "job_runner")),
	}
}

// Submit persists a job and adds it to the queue. The persisted row is
// what makes the enqueue durable: even if the buffer is full or the
// process dies, the job is recovered from the store on the next start,
// so a full buffer is not reported as a submission failure.
func (r *JobRunner) Submit(ctx context.Context, job Job) error {
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("job buffered in store only; queue unavailable",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"error", err)
	}

	return nil
}

// Start recovers unfinished jobs from previous runs and launches the
// worker pool plus the stuck-job monitor.
func (r *JobRunner) Start() error {
	if err := r.recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop gracefully shuts down the job runner. In-flight jobs finish;
// buffered jobs remain persisted as pending and are recovered on the
// next start.
func (r *JobRunner) Stop() {
	r.cancelFunc()
	r.queue.Close()
	r.wg.Wait()
}

// recover loads any unfinished jobs from the store and requeues them.
func (r *JobRunner) recover() error {
	ctx := context.Background()

	pendingJobs, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// Jobs in "processing" state were interrupted by a crash.
	processingJobs, err := r.store.GetProcessingJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pendingJobs),
		"processing_count", len(processingJobs))

	for _, job := range pendingJobs {
		r.requeue(job, "recovered pending job")
	}

	for _, job := range processingJobs {
		if err := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusPending, "reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing job status",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
			continue
		}
		r.requeue(job, "recovered processing job")
	}

	return nil
}

// worker processes jobs from the queue.
func (r *JobRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processJob(job, id)
		}
	}
}

// processJob handles execution of a single job, including the retry
// decision when execution fails.
func (r *JobRunner) processJob(job Job, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusProcessing, ""); err != nil {
		log.Error("failed to update job status to processing", "error", err)
		return
	}

	log.Info("processing job")

	err := job.Execute(ctx)
	if err == nil {
		log.Info("job completed")
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusCompleted, ""); updateErr != nil {
			log.Error("failed to update job status to completed", "error", updateErr)
		}
		return
	}

	attempts, attemptErr := r.store.IncrementJobAttempts(ctx, job.ID())
	if attemptErr != nil {
		log.Error("failed to record job attempt", "error", attemptErr)
		attempts = r.config.MaxAttempts
	}

	if attempts >= r.config.MaxAttempts {
		// Retries exhausted: park the job for inspection, never drop it
		// silently.
		log.Error("job failed permanently",
			"attempts", attempts,
			"error", err)
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update job status to failed", "error", updateErr)
		}
		return
	}

	backoff := time.Duration(attempts) * r.config.RetryBackoff
	log.Warn("job failed, scheduling retry",
		"attempts", attempts,
		"backoff", backoff,
		"error", err)

	if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusPending, err.Error()); updateErr != nil {
		log.Error("failed to update job status to pending", "error", updateErr)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-r.ctx.Done():
			// The pending row is recovered on the next start.
		case <-time.After(backoff):
			r.requeue(job, "retry after backoff")
		}
	}()
}

// requeue pushes a job back into the queue, logging when the buffer is
// saturated. The persisted pending row keeps the job recoverable either way.
func (r *JobRunner) requeue(job Job, reason string) {
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Error("failed to requeue job",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"reason", reason,
			"error", err)
	}
}

// stuckJobMonitor periodically checks for jobs that have been in
// "processing" state for too long and resets them.
func (r *JobRunner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckJobs, err := r.store.GetProcessingJobs(ctx, r.config.StuckJobAge)
			if err != nil {
				r.logger.Error("failed to check for stuck jobs", "error", err)
				continue
			}
			if len(stuckJobs) == 0 {
				continue
			}

			r.logger.Info("found stuck jobs", "count", len(stuckJobs))

			for _, job := range stuckJobs {
				if err := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusPending,
					"reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck job status",
						"job_id", job.ID(),
						"job_type", job.Type(),
						"error", err)
					continue
				}
				r.requeue(job, "stuck job reset")
			}
		}
	}
}
