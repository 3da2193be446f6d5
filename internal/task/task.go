package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a Task: pending, then processing,
// then completed or failed.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Finished reports whether s is a terminal state.
func (s TaskStatus) Finished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskTypeRetrain refits the learner model set, and the dataset model when a
// dataset path is configured.
const TaskTypeRetrain = "model_retrain"

// Task is a unit of background work run by a WorkerPool.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON form of the task input, used for logging.
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consumer side of a queue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producer side of a queue. Enqueue fails with
// ErrQueueFull or ErrQueueClosed rather than blocking.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}
