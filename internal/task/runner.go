package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/redact"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	WorkerCount int
	QueueSize   int

	// StuckTaskAge defines how long a task can sit in the processing state
	// before the monitor resets it to pending.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defaults to 5 minutes when zero.
	StuckTaskCheckInterval time.Duration

	// ExecutionTimeout bounds a single Execute call. Zero means no limit.
	ExecutionTimeout time.Duration

	// MaxAttempts marks a stuck task failed instead of requeueing it once it
	// has been picked up this many times. Zero means unlimited.
	MaxAttempts int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
		ExecutionTimeout:       2 * time.Minute,
		MaxAttempts:            5,
	}
}

// TaskRunner persists submitted tasks and executes them on a fixed pool of workers.
type TaskRunner struct {
	store      TaskStore
	registry   *Registry
	queue      *TaskQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. registry may be nil when recovery
// of persisted tasks is not needed.
func NewTaskRunner(store TaskStore, registry *Registry, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if registry == nil {
		registry = NewRegistry()
	}
	logger = logger.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		registry:   registry,
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {},
	}
}

// SetErrorHandler installs a callback invoked after a task fails.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists the task and then queues it. A task that was saved but
// could not be queued stays pending and is picked up on the next Recover.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to queue task %s: %w", task.ID(), err)
	}
	return nil
}

// Start recovers unfinished tasks, then launches the workers and the stuck task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	r.logger.Info("task runner started", "workers", r.config.WorkerCount, "queue_size", r.config.QueueSize)
	return nil
}

// Stop signals workers to exit, waits for in-flight tasks and closes the queue.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.cancelFunc()
		r.wg.Wait()
		r.queue.Close()
		r.logger.Info("task runner stopped", "abandoned", r.queue.Len())
	})
}

// Recover requeues pending tasks and resets tasks left in processing by a previous run.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		r.requeue(ctx, rec, false)
	}
	for _, rec := range processing {
		r.requeue(ctx, rec, true)
	}
	return nil
}

// requeue rehydrates rec and puts it back on the queue. Records whose type
// cannot be rehydrated are marked failed so they are not retried forever.
func (r *TaskRunner) requeue(ctx context.Context, rec Record, reset bool) {
	log := r.logger.With("task_id", rec.ID, "task_type", rec.Type)

	if r.config.MaxAttempts > 0 && rec.Attempts >= r.config.MaxAttempts {
		log.Warn("task exceeded max attempts", "attempts", rec.Attempts)
		r.setStatus(ctx, log, rec.ID, TaskStatusFailed, fmt.Sprintf("gave up after %d attempts", rec.Attempts))
		return
	}

	task, err := r.registry.Rehydrate(rec)
	if err != nil {
		log.Error("cannot rehydrate task", redact.Attr(err))
		r.setStatus(ctx, log, rec.ID, TaskStatusFailed, err.Error())
		return
	}

	if reset {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "reset after interruption"); err != nil {
			log.Error("failed to reset processing task status", redact.Attr(err))
			return
		}
	}

	if err := r.queue.Enqueue(task); err != nil {
		log.Error("failed to requeue task", redact.Attr(err))
	}
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.queue.GetChannel():
			if !ok {
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task. Panics inside Execute
// are reported as task failures.
func (r *TaskRunner) processTask(task Task, workerID int) {
	// Detached from r.ctx so Stop lets in-flight work finish.
	ctx := context.Background()
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", redact.Attr(err))
		return
	}

	start := time.Now()
	err := r.execute(ctx, task)
	log = log.With("duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		log.Error("task execution failed", redact.Attr(err))
		r.setStatus(ctx, log, task.ID(), TaskStatusFailed, redact.Error(err))
		r.errHandler(task, err)
		return
	}

	log.Info("task completed")
	r.setStatus(ctx, log, task.ID(), TaskStatusCompleted, "")
}

func (r *TaskRunner) execute(ctx context.Context, task Task) (err error) {
	if r.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ExecutionTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	err = task.Execute(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("task timed out after %s: %w", r.config.ExecutionTimeout, err)
	}
	return err
}

func (r *TaskRunner) setStatus(ctx context.Context, log *slog.Logger, id uuid.UUID, status TaskStatus, msg string) {
	if err := r.store.UpdateTaskStatus(ctx, id, status, msg); err != nil {
		log.Error("failed to update task status", "status", status, redact.Attr(err))
	}
}

// stuckTaskMonitor periodically resets tasks that have been processing for too long.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.resetStuckTasks(r.ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", redact.Attr(err))
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", "count", len(stuck))
	for _, rec := range stuck {
		r.requeue(ctx, rec, true)
	}
}
