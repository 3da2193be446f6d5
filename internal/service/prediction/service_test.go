package prediction_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/mocks"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, db *mocks.MemoryDB) (prediction.Service, *prediction.Registry) {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	reg := prediction.NewRegistry()
	svc, err := prediction.NewService(
		reg,
		prediction.Stores{
			Learners:     db.Learners(),
			Predictions:  db.PredictionStore(),
			Interactions: db.InteractionStore(),
			Tx:           db,
		},
		prediction.Config{
			MinTrainingSamples: 10,
			TrainTimeout:       10 * time.Second,
			Now:                func() time.Time { return fixedNow },
		},
		nil,
		log,
	)
	require.NoError(t, err)
	return svc, reg
}

func learner(skill domain.SkillLevel, scores ...float64) *domain.LearnerProfile {
	p := &domain.LearnerProfile{
		ID:            uuid.New(),
		Username:      "learner",
		LearningStyle: domain.LearningStyleVisual,
		SkillLevel:    skill,
		CreatedAt:     fixedNow.AddDate(0, -1, 0),
	}
	for i, s := range scores {
		p.Attempts = append(p.Attempts, domain.QuizAttempt{
			ID:               uuid.New(),
			LearnerID:        p.ID,
			QuestionIDs:      []uuid.UUID{uuid.New()},
			Answers:          []string{"a"},
			Score:            s,
			TimeSpentSeconds: 120 + 10*i,
			DifficultyLevel:  domain.DifficultyIntermediate,
			CreatedAt:        fixedNow.AddDate(0, 0, -len(scores)+i),
		})
	}
	return p
}

func seedPopulation(db *mocks.MemoryDB, n int) {
	for i := 0; i < n; i++ {
		skill := []domain.SkillLevel{
			domain.SkillBeginner, domain.SkillIntermediate, domain.SkillAdvanced,
		}[i%3]
		base := 40 + float64(i*5%60)
		db.AddLearner(learner(skill, base, base+5, base+2))
	}
}

func TestNewService_NilDependencies(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	full := prediction.Stores{
		Learners:     db.Learners(),
		Predictions:  db.PredictionStore(),
		Interactions: db.InteractionStore(),
		Tx:           db,
	}

	tests := []struct {
		name   string
		reg    *prediction.Registry
		stores func(prediction.Stores) prediction.Stores
	}{
		{"nil registry", nil, func(s prediction.Stores) prediction.Stores { return s }},
		{"nil learner store", prediction.NewRegistry(), func(s prediction.Stores) prediction.Stores {
			s.Learners = nil
			return s
		}},
		{"nil prediction store", prediction.NewRegistry(), func(s prediction.Stores) prediction.Stores {
			s.Predictions = nil
			return s
		}},
		{"nil transactor", prediction.NewRegistry(), func(s prediction.Stores) prediction.Stores {
			s.Tx = nil
			return s
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, err := prediction.NewService(tc.reg, tc.stores(full), prediction.Config{}, nil, nil)
			assert.Nil(t, svc)
			assert.Error(t, err)
		})
	}
}

func TestDefaultPrediction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		learner    *domain.LearnerProfile
		difficulty domain.DifficultyLevel
		want       map[domain.ModelType]float64
	}{
		{
			name:       "new beginner at intermediate",
			learner:    learner(domain.SkillBeginner),
			difficulty: domain.DifficultyIntermediate,
			want: map[domain.ModelType]float64{
				domain.ModelRidge: 47, domain.ModelBoosting: 44, domain.ModelNeighbors: 46,
			},
		},
		{
			name:       "history average at beginner",
			learner:    learner(domain.SkillAdvanced, 60, 70),
			difficulty: domain.DifficultyBeginner,
			want: map[domain.ModelType]float64{
				domain.ModelRidge: 77, domain.ModelBoosting: 74, domain.ModelNeighbors: 76,
			},
		},
		{
			name:       "clamped at the top",
			learner:    learner(domain.SkillBeginner, 100, 100),
			difficulty: domain.DifficultyBeginner,
			want: map[domain.ModelType]float64{
				domain.ModelRidge: 100, domain.ModelBoosting: 99, domain.ModelNeighbors: 100,
			},
		},
		{
			name:       "clamped at the bottom",
			learner:    learner(domain.SkillBeginner, 0, 0),
			difficulty: domain.DifficultyAdvanced,
			want: map[domain.ModelType]float64{
				domain.ModelRidge: 2, domain.ModelBoosting: 0, domain.ModelNeighbors: 1,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := prediction.DefaultPrediction(tc.learner, tc.difficulty)
			assert.Equal(t, tc.want, got.Scores)
			assert.Equal(t, domain.SourceDefault, got.Source)
			assert.Equal(t, tc.difficulty, got.Difficulty)
		})
	}
}

func TestPredict_UntrainedUsesDefaultAndPersistsNothing(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	svc, _ := newService(t, db)
	l := learner(domain.SkillBeginner)
	db.AddLearner(l)

	got := svc.Predict(context.Background(), l, domain.DifficultyIntermediate)

	assert.Equal(t, domain.SourceDefault, got.Source)
	assert.Equal(t, 47.0, got.Scores[domain.ModelRidge])
	assert.Empty(t, db.Predictions())
}

func TestPredict_InvalidDifficultyFallsBackToIntermediate(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, mocks.NewMemoryDB())
	got := svc.Predict(context.Background(), learner(domain.SkillBeginner), "expert")
	assert.Equal(t, domain.DifficultyIntermediate, got.Difficulty)
}

func TestTrainAll_InsufficientLearners(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	seedPopulation(db, 9)
	svc, reg := newService(t, db)

	trained, err := svc.TrainAll(context.Background())

	require.NoError(t, err)
	assert.False(t, trained)
	assert.Nil(t, reg.Learner())
}

func TestTrainAll_StoreFailure(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	db.ListProfilesErr = store.ErrPersistence
	svc, _ := newService(t, db)

	trained, err := svc.TrainAll(context.Background())

	assert.False(t, trained)
	assert.ErrorIs(t, err, store.ErrPersistence)
}

func TestTrainAll_ThenPredictPersistsClampedScores(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	seedPopulation(db, 12)
	svc, reg := newService(t, db)

	trained, err := svc.TrainAll(context.Background())
	require.NoError(t, err)
	require.True(t, trained)
	require.NotNil(t, reg.Learner())

	status := svc.Status()
	require.NotNil(t, status.Learner)
	assert.Equal(t, 12, status.Learner.Samples)
	assert.Len(t, status.Learner.Schema, 9)
	assert.Nil(t, status.Dataset)

	l := learner(domain.SkillIntermediate, 65, 70)
	got := svc.Predict(context.Background(), l, domain.DifficultyAdvanced)

	assert.Equal(t, domain.SourceTrained, got.Source)
	require.Len(t, got.Scores, 3)
	for mt, s := range got.Scores {
		assert.GreaterOrEqual(t, s, 0.0, mt)
		assert.LessOrEqual(t, s, 100.0, mt)
	}

	stored := db.Predictions()
	require.Len(t, stored, 3)
	for _, p := range stored {
		assert.Equal(t, l.ID, p.LearnerID)
		assert.False(t, p.Resolved())
		assert.Equal(t, domain.DifficultyAdvanced, p.DifficultyLevel)
		assert.Equal(t, got.Scores[p.ModelType], p.PredictedScore)
	}
}

func TestPredict_PersistenceFailureStillReturnsScores(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	seedPopulation(db, 10)
	svc, _ := newService(t, db)
	trained, err := svc.TrainAll(context.Background())
	require.NoError(t, err)
	require.True(t, trained)

	db.CreatePredictionsErr = store.ErrPersistence
	got := svc.Predict(context.Background(), learner(domain.SkillBeginner, 50), domain.DifficultyBeginner)

	assert.Equal(t, domain.SourceTrained, got.Source)
	assert.Len(t, got.Scores, 3)
	assert.Empty(t, db.Predictions())
}

func TestResolveAccuracy_OnlyThreeNewest(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	svc, _ := newService(t, db)
	learnerID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		p, err := domain.NewPrediction(learnerID, domain.ModelRidge, 60, domain.DifficultyIntermediate)
		require.NoError(t, err)
		p.CreatedAt = fixedNow.Add(time.Duration(i) * time.Minute)
		ids = append(ids, p.ID)
		db.AddPredictions(p)
	}
	other, err := domain.NewPrediction(uuid.New(), domain.ModelRidge, 60, domain.DifficultyIntermediate)
	require.NoError(t, err)
	db.AddPredictions(other)

	n, err := svc.ResolveAccuracy(context.Background(), learnerID, 70)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	byID := make(map[uuid.UUID]*domain.Prediction)
	for _, p := range db.Predictions() {
		byID[p.ID] = &p
	}
	for i, id := range ids {
		p := byID[id]
		if i < 2 {
			assert.False(t, p.Resolved(), "older prediction %d must stay unresolved", i)
			continue
		}
		require.True(t, p.Resolved(), "prediction %d", i)
		assert.Equal(t, 70.0, *p.ActualScore)
		assert.Equal(t, 90.0, *p.Accuracy)
	}
	assert.False(t, byID[other.ID].Resolved())
}

func TestResolveAccuracy_FailureRollsBack(t *testing.T) {
	t.Parallel()

	db := mocks.NewMemoryDB()
	svc, _ := newService(t, db)
	learnerID := uuid.New()
	p, err := domain.NewPrediction(learnerID, domain.ModelBoosting, 40, domain.DifficultyBeginner)
	require.NoError(t, err)
	db.AddPredictions(p)
	db.ResolveErr = store.ErrPersistence

	n, err := svc.ResolveAccuracy(context.Background(), learnerID, 80)

	assert.Zero(t, n)
	assert.ErrorIs(t, err, store.ErrPersistence)
	assert.False(t, db.Predictions()[0].Resolved())
}

func TestResolveAccuracy_NothingPending(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, mocks.NewMemoryDB())
	n, err := svc.ResolveAccuracy(context.Background(), uuid.New(), 50)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func enhancedOutcome() (*domain.LearnerProfile, prediction.QuizOutcome) {
	l := learner(domain.SkillIntermediate)
	l.LearningStyle = domain.LearningStyleReading
	q := func(subject string, level domain.DifficultyLevel) *domain.Question {
		return &domain.Question{
			ID:              uuid.New(),
			Subject:         subject,
			DifficultyLevel: level,
			Options:         []string{"a", "b"},
			CorrectAnswer:   "a",
		}
	}
	return l, prediction.QuizOutcome{
		Questions: []*domain.Question{
			q("Python", domain.DifficultyBeginner),
			q("Python", domain.DifficultyIntermediate),
			q("OOP", domain.DifficultyIntermediate),
		},
		Answers:          []string{"a", "b"},
		Score:            100.0 / 3,
		TimeSpentSeconds: 90,
		Predictions: domain.ModelScores{Scores: map[domain.ModelType]float64{
			domain.ModelRidge: 43.0 + 1.0/3,
		}},
	}
}

func TestEnhancedPayload(t *testing.T) {
	t.Parallel()

	l, outcome := enhancedOutcome()
	got := prediction.EnhancedPayload(l, outcome)

	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 3, got.TotalQuestions)
	assert.Equal(t, 90, got.TimeSpent)
	assert.Equal(t, domain.LearningStyleReading, got.LearningStyle)
	assert.Equal(t, map[string]domain.Breakdown{
		"Python": {Correct: 1, Total: 2},
		"OOP":    {Correct: 0, Total: 1},
	}, got.SubjectPerformance)
	assert.Equal(t, map[string]domain.Breakdown{
		"beginner":     {Correct: 1, Total: 1},
		"intermediate": {Correct: 0, Total: 2},
	}, got.DifficultyPerformance)
	assert.InDelta(t, 10.0, got.ActualVsPredicted[string(domain.ModelRidge)], 1e-9)
	assert.InDelta(t, 43.0+1.0/3, got.PredictedScores[string(domain.ModelRidge)], 1e-9)
}

func TestRecordEnhanced(t *testing.T) {
	t.Parallel()

	t.Run("stores one enhanced interaction", func(t *testing.T) {
		t.Parallel()
		db := mocks.NewMemoryDB()
		svc, _ := newService(t, db)
		l, outcome := enhancedOutcome()

		svc.RecordEnhanced(context.Background(), l, outcome)

		stored := db.Interactions()
		require.Len(t, stored, 1)
		assert.Equal(t, domain.InteractionEnhancedQuiz, stored[0].Type)
		assert.Equal(t, l.ID, stored[0].LearnerID)

		payload, err := stored[0].Payload()
		require.NoError(t, err)
		enhanced, ok := payload.(domain.EnhancedQuizPayload)
		require.True(t, ok)
		assert.Equal(t, 1, enhanced.CorrectAnswers)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		t.Parallel()
		db := mocks.NewMemoryDB()
		db.CreateInteractionErr = errors.New("connection refused")
		svc, _ := newService(t, db)
		l, outcome := enhancedOutcome()

		assert.NotPanics(t, func() { svc.RecordEnhanced(context.Background(), l, outcome) })
		assert.Empty(t, db.Interactions())
	})
}

func TestTrainFromDataset(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		svc, reg := newService(t, mocks.NewMemoryDB())
		trained, err := svc.TrainFromDataset(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		require.NoError(t, err)
		assert.False(t, trained)
		assert.Nil(t, reg.Dataset())
	})

	t.Run("too few rows", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "small.csv")
		require.NoError(t, dataset.Append(path, dataset.Row{
			Subject: "Python", Difficulty: "beginner", Score: 70, TimeSpent: 100,
			LearningStyle: "visual", SkillLevel: "beginner",
		}))
		svc, _ := newService(t, mocks.NewMemoryDB())
		trained, err := svc.TrainFromDataset(context.Background(), path)
		require.NoError(t, err)
		assert.False(t, trained)
	})

	t.Run("generated dataset trains and predicts", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "data.csv")
		f, err := os.Create(path)
		require.NoError(t, err)
		_, err = dataset.Generate(f, 20, rand.New(rand.NewSource(7)))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		svc, _ := newService(t, mocks.NewMemoryDB())

		_, ok := svc.PredictRow(dataset.Row{Subject: "Python"})
		assert.False(t, ok)

		trained, err := svc.TrainFromDataset(context.Background(), path)
		require.NoError(t, err)
		require.True(t, trained)

		got, ok := svc.PredictRow(dataset.Row{
			Subject: "Python", Difficulty: "advanced", TimeSpent: 150,
			LearningStyle: "visual", SkillLevel: "advanced",
		})
		require.True(t, ok)
		assert.Len(t, got.Scores, 3)
		for _, s := range got.Scores {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}

		status := svc.Status()
		require.NotNil(t, status.Dataset)
		assert.Equal(t, dataset.Schema, status.Dataset.Schema)
		assert.Nil(t, status.Learner)
	})
}

func TestRegistrySwap(t *testing.T) {
	t.Parallel()

	reg := prediction.NewRegistry()
	assert.Nil(t, reg.Learner())
	assert.Nil(t, reg.SwapDataset(nil))
	st := reg.Status()
	assert.Nil(t, st.Learner)
	assert.Nil(t, st.Dataset)
}
