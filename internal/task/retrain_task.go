package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Trainer is the training surface of the prediction service.
type Trainer interface {
	TrainAll(ctx context.Context) (bool, error)
	TrainFromDataset(ctx context.Context, path string) (bool, error)
}

// RetrainPayload describes what a RetrainTask refits.
type RetrainPayload struct {
	// Reason is the event type that requested the retrain.
	Reason string `json:"reason"`
	// DatasetPath, when set, also refits the dataset model from that file.
	DatasetPath string `json:"dataset_path,omitempty"`
}

// RetrainTask refits the shared model sets. Each refit publishes a new set
// only on success, so a failed run leaves the previous set serving.
type RetrainTask struct {
	id      uuid.UUID
	payload RetrainPayload
	trainer Trainer
	logger  *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*RetrainTask)(nil)

// NewRetrainTask creates a pending RetrainTask.
func NewRetrainTask(trainer Trainer, payload RetrainPayload, logger *slog.Logger) (*RetrainTask, error) {
	if trainer == nil {
		return nil, fmt.Errorf("trainer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &RetrainTask{
		id:      id,
		payload: payload,
		trainer: trainer,
		logger: logger.With(
			slog.String("task_id", id.String()),
			slog.String("task_type", TaskTypeRetrain),
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *RetrainTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *RetrainTask) Type() string { return TaskTypeRetrain }

// Payload returns the JSON-encoded RetrainPayload
func (t *RetrainTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return nil
	}
	return data
}

// Status returns the current task status
func (t *RetrainTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *RetrainTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute refits the learner model set, then the dataset model if a path
// is configured. Too little data is not a failure.
func (t *RetrainTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	trained, err := t.trainer.TrainAll(ctx)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("retrain learner models: %w", err)
	}
	t.logger.Info("learner retrain finished",
		slog.String("reason", t.payload.Reason),
		slog.Bool("trained", trained))

	if t.payload.DatasetPath != "" {
		trained, err := t.trainer.TrainFromDataset(ctx, t.payload.DatasetPath)
		if err != nil {
			t.setStatus(TaskStatusFailed)
			return fmt.Errorf("retrain dataset model: %w", err)
		}
		t.logger.Info("dataset retrain finished", slog.Bool("trained", trained))
	}

	t.setStatus(TaskStatusCompleted)
	return nil
}
