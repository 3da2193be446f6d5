package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/store"
)

// MemoryDB is an in-memory backing for every store interface. Profiles are
// assembled on read from the stored learners, attempts and interactions, the
// same way the Postgres stores join them.
//
// MemoryDB also implements store.Transactor: RunInTx calls fn with a nil
// transaction and restores the appended records if fn fails. WithTx(nil) on
// the stores returns the store itself.
//
// The *Err fields inject failures into the matching operation.
type MemoryDB struct {
	mu sync.Mutex

	learners     []*domain.LearnerProfile
	questions    []*domain.Question
	content      []*domain.Content
	attempts     []domain.QuizAttempt
	interactions []domain.Interaction
	predictions  []domain.Prediction

	GetProfileErr        error
	ListProfilesErr      error
	ListBySubjectErr     error
	GetByIDsErr          error
	ListContentErr       error
	CreateAttemptErr     error
	CreateInteractionErr error
	CreatePredictionsErr error
	ListUnresolvedErr    error
	ResolveErr           error
	TxErr                error

	// TxCalls counts RunInTx invocations.
	TxCalls int
}

var _ store.Transactor = (*MemoryDB)(nil)

// NewMemoryDB returns an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{}
}

// AddLearner stores the learner along with any attempts and interactions it
// already carries.
func (db *MemoryDB) AddLearner(p *domain.LearnerProfile) {
	db.mu.Lock()
	defer db.mu.Unlock()

	base := *p
	base.Attempts = nil
	base.Interactions = nil
	db.learners = append(db.learners, &base)
	db.attempts = append(db.attempts, p.Attempts...)
	db.interactions = append(db.interactions, p.Interactions...)
}

// AddQuestions stores questions.
func (db *MemoryDB) AddQuestions(qs ...*domain.Question) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.questions = append(db.questions, qs...)
}

// AddContent stores content items.
func (db *MemoryDB) AddContent(cs ...*domain.Content) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.content = append(db.content, cs...)
}

// AddPredictions stores predictions as if CreateMultiple had been called.
func (db *MemoryDB) AddPredictions(ps ...*domain.Prediction) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range ps {
		db.predictions = append(db.predictions, *p)
	}
}

// Attempts returns a copy of every stored attempt.
func (db *MemoryDB) Attempts() []domain.QuizAttempt {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.QuizAttempt(nil), db.attempts...)
}

// Interactions returns a copy of every stored interaction.
func (db *MemoryDB) Interactions() []domain.Interaction {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.Interaction(nil), db.interactions...)
}

// Predictions returns a copy of every stored prediction.
func (db *MemoryDB) Predictions() []domain.Prediction {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.Prediction(nil), db.predictions...)
}

// RunInTx implements store.Transactor.
func (db *MemoryDB) RunInTx(ctx context.Context, fn store.TxFn) error {
	db.mu.Lock()
	db.TxCalls++
	if db.TxErr != nil {
		db.mu.Unlock()
		return db.TxErr
	}
	attempts := len(db.attempts)
	interactions := len(db.interactions)
	predictions := append([]domain.Prediction(nil), db.predictions...)
	db.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		db.mu.Lock()
		db.attempts = db.attempts[:attempts]
		db.interactions = db.interactions[:interactions]
		db.predictions = predictions
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *MemoryDB) profile(base *domain.LearnerProfile) *domain.LearnerProfile {
	p := *base
	for _, a := range db.attempts {
		if a.LearnerID == p.ID {
			p.Attempts = append(p.Attempts, a)
		}
	}
	for _, i := range db.interactions {
		if i.LearnerID == p.ID {
			p.Interactions = append(p.Interactions, i)
		}
	}
	return &p
}

// Learners returns a store.LearnerStore over db.
func (db *MemoryDB) Learners() *MockLearnerStore { return &MockLearnerStore{DB: db} }

// Questions returns a store.QuestionStore over db.
func (db *MemoryDB) Questions() *MockQuestionStore { return &MockQuestionStore{DB: db} }

// Content returns a store.ContentStore over db.
func (db *MemoryDB) Content() *MockContentStore { return &MockContentStore{DB: db} }

// AttemptStore returns a store.AttemptStore over db.
func (db *MemoryDB) AttemptStore() *MockAttemptStore { return &MockAttemptStore{DB: db} }

// InteractionStore returns a store.InteractionStore over db.
func (db *MemoryDB) InteractionStore() *MockInteractionStore {
	return &MockInteractionStore{DB: db}
}

// PredictionStore returns a store.PredictionStore over db.
func (db *MemoryDB) PredictionStore() *MockPredictionStore { return &MockPredictionStore{DB: db} }

// MockLearnerStore implements store.LearnerStore for testing
type MockLearnerStore struct {
	DB *MemoryDB

	GetProfileFn func(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error)
}

var _ store.LearnerStore = (*MockLearnerStore)(nil)

// GetProfile implements the LearnerStore interface
func (m *MockLearnerStore) GetProfile(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	if m.GetProfileFn != nil {
		return m.GetProfileFn(ctx, id)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.GetProfileErr != nil {
		return nil, m.DB.GetProfileErr
	}
	for _, l := range m.DB.learners {
		if l.ID == id {
			return m.DB.profile(l), nil
		}
	}
	return nil, store.ErrLearnerNotFound
}

// ListProfiles implements the LearnerStore interface
func (m *MockLearnerStore) ListProfiles(ctx context.Context) ([]*domain.LearnerProfile, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.ListProfilesErr != nil {
		return nil, m.DB.ListProfilesErr
	}
	out := make([]*domain.LearnerProfile, 0, len(m.DB.learners))
	for _, l := range m.DB.learners {
		out = append(out, m.DB.profile(l))
	}
	return out, nil
}

// WithTx implements the LearnerStore interface
func (m *MockLearnerStore) WithTx(*sql.Tx) store.LearnerStore { return m }

// MockQuestionStore implements store.QuestionStore for testing
type MockQuestionStore struct {
	DB *MemoryDB
}

var _ store.QuestionStore = (*MockQuestionStore)(nil)

// ListBySubject implements the QuestionStore interface
func (m *MockQuestionStore) ListBySubject(_ context.Context, subject string) ([]*domain.Question, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.ListBySubjectErr != nil {
		return nil, m.DB.ListBySubjectErr
	}
	out := []*domain.Question{}
	for _, q := range m.DB.questions {
		if q.Subject == subject {
			out = append(out, q)
		}
	}
	return out, nil
}

// GetByIDs implements the QuestionStore interface
func (m *MockQuestionStore) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Question, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.GetByIDsErr != nil {
		return nil, m.DB.GetByIDsErr
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID]*domain.Question)
	for _, q := range m.DB.questions {
		if want[q.ID] {
			out[q.ID] = q
		}
	}
	return out, nil
}

// ListSubjects implements the QuestionStore interface
func (m *MockQuestionStore) ListSubjects(context.Context) ([]string, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, q := range m.DB.questions {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			out = append(out, q.Subject)
		}
	}
	sort.Strings(out)
	return out, nil
}

// WithTx implements the QuestionStore interface
func (m *MockQuestionStore) WithTx(*sql.Tx) store.QuestionStore { return m }

// MockContentStore implements store.ContentStore for testing
type MockContentStore struct {
	DB *MemoryDB
}

var _ store.ContentStore = (*MockContentStore)(nil)

// ListByDifficulty implements the ContentStore interface
func (m *MockContentStore) ListByDifficulty(
	_ context.Context,
	level domain.DifficultyLevel,
	limit int,
) ([]*domain.Content, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.ListContentErr != nil {
		return nil, m.DB.ListContentErr
	}
	out := []*domain.Content{}
	for i := len(m.DB.content) - 1; i >= 0; i-- {
		if c := m.DB.content[i]; c.DifficultyLevel == level {
			out = append(out, c)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// WithTx implements the ContentStore interface
func (m *MockContentStore) WithTx(*sql.Tx) store.ContentStore { return m }

// MockAttemptStore implements store.AttemptStore for testing
type MockAttemptStore struct {
	DB *MemoryDB
}

var _ store.AttemptStore = (*MockAttemptStore)(nil)

// Create implements the AttemptStore interface
func (m *MockAttemptStore) Create(_ context.Context, a *domain.QuizAttempt) error {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.CreateAttemptErr != nil {
		return m.DB.CreateAttemptErr
	}
	if err := a.Validate(); err != nil {
		return store.NewStoreError("attempt", "create", "invalid attempt", store.ErrInvalidEntity)
	}
	m.DB.attempts = append(m.DB.attempts, *a)
	return nil
}

// WithTx implements the AttemptStore interface
func (m *MockAttemptStore) WithTx(*sql.Tx) store.AttemptStore { return m }

// MockInteractionStore implements store.InteractionStore for testing
type MockInteractionStore struct {
	DB *MemoryDB
}

var _ store.InteractionStore = (*MockInteractionStore)(nil)

// Create implements the InteractionStore interface
func (m *MockInteractionStore) Create(_ context.Context, i *domain.Interaction) error {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.CreateInteractionErr != nil {
		return m.DB.CreateInteractionErr
	}
	if err := i.Validate(); err != nil {
		return store.NewStoreError("interaction", "create", "invalid interaction", store.ErrInvalidEntity)
	}
	m.DB.interactions = append(m.DB.interactions, *i)
	return nil
}

// WithTx implements the InteractionStore interface
func (m *MockInteractionStore) WithTx(*sql.Tx) store.InteractionStore { return m }

// MockPredictionStore implements store.PredictionStore for testing
type MockPredictionStore struct {
	DB *MemoryDB
}

var _ store.PredictionStore = (*MockPredictionStore)(nil)

// CreateMultiple implements the PredictionStore interface
func (m *MockPredictionStore) CreateMultiple(_ context.Context, ps []*domain.Prediction) error {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.CreatePredictionsErr != nil {
		return m.DB.CreatePredictionsErr
	}
	for _, p := range ps {
		m.DB.predictions = append(m.DB.predictions, *p)
	}
	return nil
}

// ListUnresolved implements the PredictionStore interface
func (m *MockPredictionStore) ListUnresolved(
	_ context.Context,
	learnerID uuid.UUID,
	limit int,
) ([]*domain.Prediction, error) {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.ListUnresolvedErr != nil {
		return nil, m.DB.ListUnresolvedErr
	}

	var out []*domain.Prediction
	for i := len(m.DB.predictions) - 1; i >= 0; i-- {
		p := m.DB.predictions[i]
		if p.LearnerID == learnerID && !p.Resolved() {
			out = append(out, &p)
		}
	}
	// Newest first; ties keep reverse insertion order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Resolve implements the PredictionStore interface
func (m *MockPredictionStore) Resolve(_ context.Context, p *domain.Prediction) error {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if m.DB.ResolveErr != nil {
		return m.DB.ResolveErr
	}
	if !p.Resolved() {
		return store.ErrInvalidEntity
	}
	for i := range m.DB.predictions {
		stored := &m.DB.predictions[i]
		if stored.ID == p.ID && !stored.Resolved() {
			stored.ActualScore = p.ActualScore
			stored.Accuracy = p.Accuracy
			return nil
		}
	}
	return store.ErrPredictionNotFound
}

// WithTx implements the PredictionStore interface
func (m *MockPredictionStore) WithTx(*sql.Tx) store.PredictionStore { return m }
