package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the key-value backed stores the server needs
type Stores struct {
	Sessions    identity.SessionStore
	Idempotency shared.IdempotencyStore

	client *redis.Client
}

// Close releases the stores and the Redis client, if any
func (s *Stores) Close() error {
	_ = s.Sessions.Close()
	_ = s.Idempotency.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Ping checks Redis when the stores are Redis-backed
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// StoreFactory creates the session and idempotency stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Production disables it.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory creates process-local stores
func (f *StoreFactory) InMemory() *Stores {
	return &Stores{
		Sessions:    NewInMemorySessionStore(),
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}

// Create returns Redis-backed stores when Redis is enabled and reachable,
// otherwise in-memory stores if fallback is allowed
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory session and idempotency stores")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis session and idempotency stores", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Sessions:    NewRedisSessionStore(client),
			Idempotency: NewRedisIdempotencyStore(client, ""),
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Sessions will not be shared between instances.",
		zap.Error(err),
	)
	return f.InMemory(), nil
}
