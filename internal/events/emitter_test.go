package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler implements EventHandler for testing
type recordingHandler struct {
	LastEvent    *Event
	HandlerError error
	HandledCount int
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	payload := QuizGradedPayload{
		LearnerID: uuid.New(),
		SessionID: uuid.New(),
		Subject:   "Python",
		Score:     80,
		Persisted: true,
	}

	event, err := NewEvent(TypeQuizGraded, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeQuizGraded, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded QuizGradedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewEvent(TypeQuizGraded, make(chan int))
	assert.Error(t, err)
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T) *Event {
		t.Helper()
		event, err := NewEvent(TypeQuizGraded, QuizGradedPayload{LearnerID: uuid.New()})
		require.NoError(t, err)
		return event
	}

	t.Run("no handlers", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("every handler receives the event", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(logger)
		h1, h2 := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, h1.HandledCount)
		assert.Equal(t, 1, h2.HandledCount)
		assert.Equal(t, event, h1.LastEvent)
		assert.Equal(t, event, h2.LastEvent)
	})

	t.Run("failing handler does not stop dispatch", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(nil)
		failing := &recordingHandler{HandlerError: errors.New("handler error")}
		ok := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		require.Error(t, err)
		assert.Equal(t, "handler error", err.Error())
		assert.Equal(t, 1, failing.HandledCount)
		assert.Equal(t, 1, ok.HandledCount)
	})

	t.Run("errors from every handler are joined", func(t *testing.T) {
		t.Parallel()
		errA := errors.New("queue closed")
		errB := errors.New("bad payload")
		emitter := NewInMemoryEventEmitter(nil)
		emitter.RegisterHandler(HandlerFunc(func(context.Context, *Event) error { return errA }))
		emitter.RegisterHandler(HandlerFunc(func(context.Context, *Event) error { return errB }))

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})
}

func TestNewQuizGradedEvent(t *testing.T) {
	t.Parallel()

	learner := uuid.New()
	event, err := NewQuizGradedEvent(QuizGradedPayload{LearnerID: learner, Score: 80, DatasetAppended: true})
	require.NoError(t, err)
	assert.Equal(t, TypeQuizGraded, event.Type)

	var p QuizGradedPayload
	require.NoError(t, event.UnmarshalPayload(&p))
	assert.Equal(t, learner, p.LearnerID)
	assert.True(t, p.DatasetAppended)
}
