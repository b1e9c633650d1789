package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore stores sessions as JSON under session:<id>. The key TTL is
// set once at creation; reads never touch it, so sessions do not slide.
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Create stores the session until its ExpiresAt
func (s *RedisSessionStore) Create(ctx context.Context, session *identity.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Session is already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the session or shared.ErrSessionNotFound
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*identity.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session identity.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.IsExpired(time.Now()) {
		return nil, shared.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisSessionStore) Close() error {
	return nil
}

var _ identity.SessionStore = (*RedisSessionStore)(nil)
