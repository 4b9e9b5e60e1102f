package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bizdocs/backend/internal/application/command"
)

type sessionEntry struct {
	session   command.Session
	expiresAt time.Time
}

// InMemorySessionStore implements command.SessionStore using an in-memory map.
// Sessions are lost on restart and not shared between instances.
type InMemorySessionStore struct {
	mu        sync.RWMutex
	entries   map[string]sessionEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySessionStore creates a new in-memory session store.
// It starts a background goroutine to clean up expired sessions.
func NewInMemorySessionStore() *InMemorySessionStore {
	store := &InMemorySessionStore{
		entries:  make(map[string]sessionEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Load returns a copy of the stored session, or an empty session when unknown or expired
func (s *InMemorySessionStore) Load(ctx context.Context, sessionID string) (*command.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[sessionID]
	if !ok || !s.now().Before(e.expiresAt) {
		return &command.Session{}, nil
	}
	session := e.session
	return &session, nil
}

// Save stores the session and restarts its TTL
func (s *InMemorySessionStore) Save(ctx context.Context, sessionID string, session *command.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = sessionEntry{session: *session, expiresAt: s.now().Add(ttl)}
	return nil
}

// Clear forgets a session
func (s *InMemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemorySessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemorySessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored sessions, expired ones included until cleanup
func (s *InMemorySessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ command.SessionStore = (*InMemorySessionStore)(nil)
