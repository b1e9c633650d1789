package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

const idempotencySweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore remembers processed webhook and domain event ids in
// process memory. Marks are not shared between instances, so only
// single-replica deployments may use it.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	done      chan struct{}
	stopped   sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore starts a background sweeper that drops expired
// marks. Close stops it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	s.stopped.Add(1)
	go s.sweepEvery(idempotencySweepInterval)
	return s
}

// MarkProcessed claims eventID for ttl. The check and the write happen under
// one lock, so concurrent deliveries of the same event see exactly one winner.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.liveLocked(eventID, now) {
		return false, nil
	}
	s.expires[eventID] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Unmark(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.expires, eventID)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(eventID, s.now()), nil
}

func (s *InMemoryIdempotencyStore) liveLocked(eventID string, now time.Time) bool {
	until, ok := s.expires[eventID]
	return ok && now.Before(until)
}

// Close is idempotent.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.stopped.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepEvery(interval time.Duration) {
	defer s.stopped.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops every expired mark and reports how many were removed
func (s *InMemoryIdempotencyStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id := range s.expires {
		if !s.liveLocked(id, now) {
			delete(s.expires, id)
			removed++
		}
	}
	return removed
}

// Size returns the number of held marks, expired or not.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
