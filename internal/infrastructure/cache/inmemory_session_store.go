package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

// InMemorySessionStore keeps sessions in process memory. Sessions are lost on
// restart and are not shared between instances.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]identity.Session
	now      func() time.Time
}

// NewInMemorySessionStore creates an empty store
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]identity.Session),
		now:      time.Now,
	}
}

// Create stores the session until its ExpiresAt
func (s *InMemorySessionStore) Create(ctx context.Context, session *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// Get returns a live session. Expired sessions are removed on read.
func (s *InMemorySessionStore) Get(ctx context.Context, id string) (*identity.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if session.IsExpired(s.now()) {
		_ = s.Delete(ctx, id)
		return nil, shared.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session
func (s *InMemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close releases nothing
func (s *InMemorySessionStore) Close() error {
	return nil
}

var _ identity.SessionStore = (*InMemorySessionStore)(nil)
