package task

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// stubTask is a Task whose Execute behavior is supplied by the test.
type stubTask struct {
	id        uuid.UUID
	executeFn func(ctx context.Context) error
	runs      atomic.Int32
}

func newStubTask(fn func(ctx context.Context) error) *stubTask {
	if fn == nil {
		fn = func(context.Context) error { return nil }
	}
	return &stubTask{id: uuid.New(), executeFn: fn}
}

func (t *stubTask) ID() uuid.UUID      { return t.id }
func (t *stubTask) Type() string       { return "stub" }
func (t *stubTask) Payload() []byte    { return nil }
func (t *stubTask) Status() TaskStatus { return TaskStatusPending }

func (t *stubTask) Execute(ctx context.Context) error {
	t.runs.Add(1)
	return t.executeFn(ctx)
}

// stubTrainer records training calls.
type stubTrainer struct {
	mu           sync.Mutex
	trainAllErr  error
	datasetErr   error
	trainAll     int
	datasetPaths []string
}

func (s *stubTrainer) TrainAll(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trainAll++
	return s.trainAllErr == nil, s.trainAllErr
}

func (s *stubTrainer) TrainFromDataset(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasetPaths = append(s.datasetPaths, path)
	return s.datasetErr == nil, s.datasetErr
}

func (s *stubTrainer) calls() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trainAll, append([]string(nil), s.datasetPaths...)
}
