package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TypeQuizGraded is emitted once a quiz attempt has been graded.
const TypeQuizGraded = "quiz_graded"

// Event is a fact published by one component for others to react to.
// Type selects the shape of the JSON Payload.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// QuizGradedPayload is the payload of a TypeQuizGraded event.
type QuizGradedPayload struct {
	LearnerID uuid.UUID `json:"learner_id"`
	SessionID uuid.UUID `json:"session_id"`
	Subject   string    `json:"subject"`
	Score     float64   `json:"score"`
	// Persisted is false when the attempt could not be stored.
	Persisted bool `json:"persisted"`
	// DatasetAppended is true when a row was appended to the training dataset.
	DatasetAppended bool `json:"dataset_appended"`
}

// NewEvent encodes payload and stamps a fresh ID and UTC time.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewQuizGradedEvent builds a TypeQuizGraded event.
func NewQuizGradedEvent(p QuizGradedPayload) (*Event, error) {
	return NewEvent(TypeQuizGraded, p)
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to events. Handlers receive every event and ignore
// types they do not care about.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events without knowing who handles them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
