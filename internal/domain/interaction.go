package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InteractionType tags an Interaction and selects its payload shape.
type InteractionType string

const (
	InteractionQuiz         InteractionType = "quiz"
	InteractionContentView  InteractionType = "content_view"
	InteractionEnhancedQuiz InteractionType = "enhanced_quiz"
	InteractionClick        InteractionType = "click"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionQuiz, InteractionContentView, InteractionEnhancedQuiz, InteractionClick:
		return true
	}
	return false
}

// Validation errors for Interaction
var (
	ErrEmptyInteractionLearnerID = errors.New("interaction learner ID cannot be empty")
	ErrInvalidInteractionType    = errors.New("invalid interaction type")
)

// Interaction is a log record of something a learner did. Metadata holds the
// JSON encoding of the payload matching Type; use Payload to decode it.
type Interaction struct {
	ID              uuid.UUID       `json:"id"`
	LearnerID       uuid.UUID       `json:"learner_id"`
	Type            InteractionType `json:"interaction_type"`
	ContentID       *uuid.UUID      `json:"content_id,omitempty"`
	DurationSeconds int             `json:"duration_seconds"`
	Metadata        json.RawMessage `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Payload is implemented by every typed interaction payload.
type Payload interface {
	InteractionType() InteractionType
}

// Breakdown counts correct answers out of a total.
type Breakdown struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Ratio returns Correct/Total. The second result is false when Total is zero.
func (b Breakdown) Ratio() (float64, bool) {
	if b.Total <= 0 {
		return 0, false
	}
	return float64(b.Correct) / float64(b.Total), true
}

// QuizPayload summarises a graded attempt.
type QuizPayload struct {
	AttemptID  uuid.UUID       `json:"attempt_id"`
	Score      float64         `json:"score"`
	Correct    int             `json:"correct"`
	Total      int             `json:"total"`
	Subject    string          `json:"subject"`
	Difficulty DifficultyLevel `json:"difficulty"`
}

// ContentViewPayload records a learner opening a content item.
type ContentViewPayload struct {
	ContentType string `json:"content_type"`
	Completed   bool   `json:"completed"`
}

// ClickPayload records a UI click.
type ClickPayload struct {
	Element string `json:"element"`
	Target  string `json:"target"`
}

// EnhancedQuizPayload is the detailed post-quiz record consumed by feature
// extraction. A nil map means the key was absent; an empty map means it was
// present with no entries.
type EnhancedQuizPayload struct {
	QuizScore             float64              `json:"quiz_score"`
	TimeSpent             int                  `json:"time_spent"`
	CorrectAnswers        int                  `json:"correct_answers"`
	TotalQuestions        int                  `json:"total_questions"`
	SubjectPerformance    map[string]Breakdown `json:"subject_performance"`
	DifficultyPerformance map[string]Breakdown `json:"difficulty_performance"`
	LearningStyle         LearningStyle        `json:"learning_style"`
	PredictedScores       map[string]float64   `json:"predicted_scores"`
	ActualVsPredicted     map[string]float64   `json:"actual_vs_predicted"`
}

func (QuizPayload) InteractionType() InteractionType         { return InteractionQuiz }
func (ContentViewPayload) InteractionType() InteractionType  { return InteractionContentView }
func (ClickPayload) InteractionType() InteractionType        { return InteractionClick }
func (EnhancedQuizPayload) InteractionType() InteractionType { return InteractionEnhancedQuiz }

// NewInteraction encodes payload into a new Interaction of the payload's type.
func NewInteraction(learnerID uuid.UUID, payload Payload, durationSeconds int) (*Interaction, error) {
	if learnerID == uuid.Nil {
		return nil, ErrEmptyInteractionLearnerID
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: payload cannot be nil", ErrValidation)
	}

	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode interaction payload: %w", err)
	}

	return &Interaction{
		ID:              uuid.New(),
		LearnerID:       learnerID,
		Type:            payload.InteractionType(),
		DurationSeconds: durationSeconds,
		Metadata:        meta,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Validate checks if the interaction has valid data.
func (i *Interaction) Validate() error {
	if i.LearnerID == uuid.Nil {
		return ErrEmptyInteractionLearnerID
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInteractionType, i.Type)
	}
	return nil
}

// Payload decodes Metadata into the payload type selected by Type.
//
// Decoding is per field: a field that fails to decode is left at its zero
// value and the rest of the payload is still returned, together with an
// error wrapping ErrMalformedRecord. If Metadata is not a JSON object at all,
// or Type is unknown, the returned payload is nil.
func (i *Interaction) Payload() (Payload, error) {
	d, err := newFieldDecoder(i.Metadata)
	if err != nil {
		return nil, err
	}

	switch i.Type {
	case InteractionQuiz:
		var p QuizPayload
		decodeField(d, "attempt_id", &p.AttemptID)
		decodeField(d, "score", &p.Score)
		p.Correct = d.integer("correct")
		p.Total = d.integer("total")
		decodeField(d, "subject", &p.Subject)
		decodeField(d, "difficulty", &p.Difficulty)
		return p, d.err()
	case InteractionContentView:
		var p ContentViewPayload
		decodeField(d, "content_type", &p.ContentType)
		decodeField(d, "completed", &p.Completed)
		return p, d.err()
	case InteractionClick:
		var p ClickPayload
		decodeField(d, "element", &p.Element)
		decodeField(d, "target", &p.Target)
		return p, d.err()
	case InteractionEnhancedQuiz:
		var p EnhancedQuizPayload
		decodeField(d, "quiz_score", &p.QuizScore)
		p.TimeSpent = d.integer("time_spent")
		p.CorrectAnswers = d.integer("correct_answers")
		p.TotalQuestions = d.integer("total_questions")
		p.SubjectPerformance = d.breakdowns("subject_performance")
		p.DifficultyPerformance = d.breakdowns("difficulty_performance")
		decodeField(d, "learning_style", &p.LearningStyle)
		p.PredictedScores = d.numbers("predicted_scores")
		p.ActualVsPredicted = d.numbers("actual_vs_predicted")
		return p, d.err()
	default:
		return nil, fmt.Errorf("%w: unknown interaction type %q", ErrMalformedRecord, i.Type)
	}
}

// fieldDecoder decodes a JSON object one key at a time, collecting the keys
// that failed instead of aborting.
type fieldDecoder struct {
	fields map[string]json.RawMessage
	bad    []string
}

func newFieldDecoder(raw json.RawMessage) (*fieldDecoder, error) {
	d := &fieldDecoder{fields: map[string]json.RawMessage{}}
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d.fields); err != nil {
		return nil, fmt.Errorf("%w: metadata is not an object: %v", ErrMalformedRecord, err)
	}
	return d, nil
}

func (d *fieldDecoder) raw(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) fail(key string) {
	d.bad = append(d.bad, key)
}

func (d *fieldDecoder) err() error {
	if len(d.bad) == 0 {
		return nil
	}
	sort.Strings(d.bad)
	return fmt.Errorf("%w: undecodable fields %s", ErrMalformedRecord, strings.Join(d.bad, ", "))
}

// decodeField assigns the value at key to dst only if it decodes cleanly.
func decodeField[T any](d *fieldDecoder, key string, dst *T) {
	raw, ok := d.raw(key)
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail(key)
		return
	}
	*dst = v
}

// integer accepts any JSON number and truncates it, since older writers
// stored counts as floats.
func (d *fieldDecoder) integer(key string) int {
	var f float64
	decodeField(d, key, &f)
	return int(f)
}

func (d *fieldDecoder) entries(key string) (map[string]json.RawMessage, bool) {
	raw, ok := d.raw(key)
	if !ok {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		d.fail(key)
		return nil, false
	}
	return m, true
}

func (d *fieldDecoder) breakdowns(key string) map[string]Breakdown {
	m, ok := d.entries(key)
	if !ok {
		return nil
	}
	out := make(map[string]Breakdown, len(m))
	for name, raw := range m {
		var b struct {
			Correct *float64 `json:"correct"`
			Total   *float64 `json:"total"`
		}
		if err := json.Unmarshal(raw, &b); err != nil || b.Correct == nil || b.Total == nil {
			d.fail(key + "." + name)
			continue
		}
		out[name] = Breakdown{Correct: int(*b.Correct), Total: int(*b.Total)}
	}
	return out
}

func (d *fieldDecoder) numbers(key string) map[string]float64 {
	m, ok := d.entries(key)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for name, raw := range m {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			d.fail(key + "." + name)
			continue
		}
		out[name] = f
	}
	return out
}
