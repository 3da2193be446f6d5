package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/events"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradedEvent(t *testing.T, appended bool) *events.Event {
	t.Helper()
	ev, err := events.NewEvent(events.TypeQuizGraded, events.QuizGradedPayload{
		LearnerID:       uuid.New(),
		SessionID:       uuid.New(),
		Subject:         "math",
		Score:           75,
		Persisted:       true,
		DatasetAppended: appended,
	})
	require.NoError(t, err)
	return ev
}

func TestRetrainEventHandler(t *testing.T) {
	t.Parallel()

	t.Run("quiz graded queues retrain", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "data.csv", log)

		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, true)))

		queued := <-q.GetChannel()
		assert.Equal(t, TaskTypeRetrain, queued.Type())

		var payload RetrainPayload
		require.NoError(t, json.Unmarshal(queued.Payload(), &payload))
		assert.Equal(t, events.TypeQuizGraded, payload.Reason)
		assert.Equal(t, "data.csv", payload.DatasetPath)
	})

	t.Run("dataset refit even when this quiz was not appended", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "data.csv", log)

		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, false)))

		var payload RetrainPayload
		require.NoError(t, json.Unmarshal((<-q.GetChannel()).Payload(), &payload))
		assert.Equal(t, "data.csv", payload.DatasetPath)
	})

	t.Run("coalesced append still refits the dataset", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		trainer := &stubTrainer{}
		h := NewRetrainEventHandler(trainer, q, "data.csv", log)

		// The first quiz failed to append; the second did but is coalesced.
		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, false)))
		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, true)))
		require.Len(t, q.GetChannel(), 1)

		require.NoError(t, (<-q.GetChannel()).Execute(context.Background()))
		_, paths := trainer.calls()
		assert.Equal(t, []string{"data.csv"}, paths)
	})

	t.Run("no dataset refit when appending is disabled", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "", log)

		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, true)))

		var payload RetrainPayload
		require.NoError(t, json.Unmarshal((<-q.GetChannel()).Payload(), &payload))
		assert.Empty(t, payload.DatasetPath)
	})

	t.Run("pending retrain coalesces further requests", func(t *testing.T) {
		t.Parallel()
		log, buf := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "", log)

		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, false)))
		require.NoError(t, h.HandleEvent(context.Background(), gradedEvent(t, false)))

		logger.AssertLogContains(t, buf, "request coalesced")
		assert.Len(t, q.GetChannel(), 1)
	})

	t.Run("closed queue is an error", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		q.Close()
		h := NewRetrainEventHandler(&stubTrainer{}, q, "", log)

		err := h.HandleEvent(context.Background(), gradedEvent(t, false))
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "", log)

		ev, err := events.NewEvent("something_else", map[string]string{"a": "b"})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), ev))
		assert.Len(t, q.GetChannel(), 0)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		q := NewTaskQueue(1, log)
		h := NewRetrainEventHandler(&stubTrainer{}, q, "", log)

		ev := &events.Event{ID: uuid.New(), Type: events.TypeQuizGraded, Payload: json.RawMessage(`"nope"`)}
		assert.Error(t, h.HandleEvent(context.Background(), ev))
	})
}
