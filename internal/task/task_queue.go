package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Enqueue errors.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded in-memory queue. Enqueue never blocks: with the
// buffer full the task is rejected with ErrQueueFull, which lets a queue of
// size 1 coalesce bursts of retrain requests into one pending run.
type TaskQueue struct {
	mu     sync.RWMutex
	tasks  chan Task
	logger *slog.Logger
	closed bool
}

// NewTaskQueue creates a queue holding at most size tasks. Sizes below 1
// are raised to 1.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size < 1 {
		size = 1
	}
	return &TaskQueue{
		tasks:  make(chan Task, size),
		logger: logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue implements TaskQueueWriter.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.logger.Debug("task enqueued",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.Int("queue_len", len(q.tasks)),
			slog.Int("queue_cap", cap(q.tasks)))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Close rejects further tasks. Workers drain what is already buffered.
// Calling Close twice is safe.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.tasks)
		q.logger.Info("task queue closed")
	}
}

// GetChannel implements TaskQueueReader.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}

// Len returns the number of buffered tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}
