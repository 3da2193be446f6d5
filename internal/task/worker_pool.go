package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/adaptiq/internal/redact"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// taskTimeout bounds a single task execution
	taskTimeout time.Duration

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// TaskTimeout bounds each task execution. Zero means no bound.
	TaskTimeout time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 1,
		TaskTimeout: 2 * time.Minute,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	logger = logger.With(slog.String("component", "worker_pool"))

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		taskTimeout: config.TaskTimeout,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures.
// It must be called before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. They run until Stop is called or the queue
// is closed and drained.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", slog.Int("worker_count", p.workerCount))
}

// Stop cancels in-flight tasks and waits for every worker to exit.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker processes tasks from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", slog.Int("worker_id", id))
				return
			}
			p.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (p *WorkerPool) processTask(task Task, workerID int) {
	log := p.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	ctx := p.ctx
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", slog.Any("panic", r))
		}
	}()

	log.Debug("processing task")
	start := time.Now()

	if err := task.Execute(ctx); err != nil {
		log.Error("task execution failed",
			redact.Attr(err),
			slog.Duration("elapsed", time.Since(start)))
		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
		return
	}

	log.Info("task completed successfully", slog.Duration("elapsed", time.Since(start)))
}
