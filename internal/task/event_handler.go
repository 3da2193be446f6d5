package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/adaptiq/internal/events"
	"github.com/phrazzld/adaptiq/internal/redact"
)

// RetrainEventHandler implements events.EventHandler by queueing a
// RetrainTask for every quiz_graded event.
//
// The queue is expected to be small: while a retrain is already waiting,
// further requests are dropped because the pending run will see their data.
type RetrainEventHandler struct {
	trainer     Trainer
	queue       TaskQueueWriter
	datasetPath string
	logger      *slog.Logger
}

var _ events.EventHandler = (*RetrainEventHandler)(nil)

// NewRetrainEventHandler creates the handler. datasetPath names the dataset
// graded quizzes are appended to; every queued retrain refits it so a
// coalesced request never loses a dataset refit. Empty disables dataset
// refits.
func NewRetrainEventHandler(
	trainer Trainer,
	queue TaskQueueWriter,
	datasetPath string,
	logger *slog.Logger,
) *RetrainEventHandler {
	return &RetrainEventHandler{
		trainer:     trainer,
		queue:       queue,
		datasetPath: datasetPath,
		logger:      logger.With(slog.String("component", "retrain_event_handler")),
	}
}

// HandleEvent queues a retrain for quiz_graded events and ignores the rest.
func (h *RetrainEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
	)

	if event.Type != events.TypeQuizGraded {
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	var payload events.QuizGradedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal payload", redact.Attr(err))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	retrain := RetrainPayload{Reason: event.Type, DatasetPath: h.datasetPath}

	t, err := NewRetrainTask(h.trainer, retrain, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	switch err := h.queue.Enqueue(t); {
	case errors.Is(err, ErrQueueFull):
		log.Debug("retrain already pending, request coalesced",
			slog.String("learner_id", payload.LearnerID.String()))
		return nil
	case err != nil:
		log.Error("failed to enqueue retrain", redact.Attr(err))
		return fmt.Errorf("failed to enqueue retrain: %w", err)
	}

	log.Info("retrain queued",
		slog.String("task_id", t.ID().String()),
		slog.String("learner_id", payload.LearnerID.String()))
	return nil
}
