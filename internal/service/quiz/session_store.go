package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore keeps assembled quiz sessions between assembly and grading.
// Sessions expire after the store's TTL if they are never graded.
type SessionStore interface {
	Save(ctx context.Context, session *domain.QuizSession) error
	// Get returns ErrSessionNotFound for an unknown or expired session.
	Get(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error)
	// Take removes and returns the learner's session. Exactly one of any
	// concurrent Takes of the same session succeeds; the others get
	// ErrSessionNotFound. A session owned by another learner is left in
	// place and ErrSessionMismatch is returned.
	Take(ctx context.Context, id, learnerID uuid.UUID) (*domain.QuizSession, error)
	// Delete is a no-op for an unknown session.
	Delete(ctx context.Context, id uuid.UUID) error
}

type memoryEntry struct {
	session   *domain.QuizSession
	expiresAt time.Time
}

// MemorySessionStore is a process-local SessionStore. Expired sessions are
// dropped lazily on access and on every Save.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[uuid.UUID]memoryEntry
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates a MemorySessionStore with the given TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]memoryEntry),
	}
}

// Save implements SessionStore.
func (s *MemorySessionStore) Save(_ context.Context, session *domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
	s.sessions[session.ID] = memoryEntry{session: session, expiresAt: now.Add(s.ttl)}
	return nil
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, id uuid.UUID) (*domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return e.session, nil
}

// Take implements SessionStore.
func (s *MemorySessionStore) Take(_ context.Context, id, learnerID uuid.UUID) (*domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	if e.session.LearnerID != learnerID {
		return nil, ErrSessionMismatch
	}
	delete(s.sessions, id)
	return e.session, nil
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// sessionKeyPrefix namespaces session keys in a shared Redis.
const sessionKeyPrefix = "adaptiq:quiz_session:"

// RedisSessionStore keeps sessions in Redis as JSON with a key TTL, so any
// server instance can grade a quiz assembled by another.
type RedisSessionStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore wraps an already connected client.
func NewRedisSessionStore(rdb *goredis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// Save implements SessionStore.
func (s *RedisSessionStore) Save(ctx context.Context, session *domain.QuizSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get implements SessionStore.
func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session domain.QuizSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("%w: session %s: %w", domain.ErrMalformedRecord, id, err)
	}
	return &session, nil
}

// Take implements SessionStore. Ownership is checked on a plain GET so a
// foreign learner cannot consume the session; GETDEL then decides which
// concurrent submit wins.
func (s *RedisSessionStore) Take(ctx context.Context, id, learnerID uuid.UUID) (*domain.QuizSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.LearnerID != learnerID {
		return nil, ErrSessionMismatch
	}

	raw, err := s.rdb.GetDel(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim session: %w", err)
	}

	var claimed domain.QuizSession
	if err := json.Unmarshal(raw, &claimed); err != nil {
		return nil, fmt.Errorf("%w: session %s: %w", domain.ErrMalformedRecord, id, err)
	}
	return &claimed, nil
}

// Delete implements SessionStore.
func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
