package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mungunsi/medichat/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps per-session conversation history. Implementations own all Turn
// data; callers receive copies and never alias store-internal slices.
type Store interface {
	// GetOrCreate returns the session history, registering an empty one on
	// first sight. First writer wins; there is no error path.
	GetOrCreate(ctx context.Context, sessionID string) []chat.Turn
	// Append adds a turn to the end of the session history.
	Append(ctx context.Context, turn chat.Turn) error
	// Clear empties a session history without removing its registration.
	Clear(ctx context.Context, sessionID string) error
	// Evict removes a session entirely. Unknown sessions are a no-op.
	Evict(ctx context.Context, sessionID string)
}

// MemoryStore implements Store with a mutex-guarded map, suitable for a
// single-process deployment. Histories live for the process lifetime; there
// is no automatic expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	turns    map[string][]chat.Turn
}

// NewMemoryStore bootstraps the in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		turns:    make(map[string][]chat.Turn),
	}
}

// GetOrCreate returns the existing history or registers an empty one.
func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = chat.Session{ID: sessionID, CreatedAt: time.Now().UTC()}
		s.turns[sessionID] = make([]chat.Turn, 0, 8)
	}

	history := s.turns[sessionID]
	copied := make([]chat.Turn, len(history))
	copy(copied, history)
	return copied
}

// Append adds a turn to the end of the session history.
func (s *MemoryStore) Append(_ context.Context, turn chat.Turn) error {
	if turn.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[turn.SessionID]; !ok {
		return ErrSessionNotFound
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

// Clear empties the session history but keeps the session registered.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	s.turns[sessionID] = s.turns[sessionID][:0]
	return nil
}

// Evict drops the session and its history.
func (s *MemoryStore) Evict(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	delete(s.turns, sessionID)
}
