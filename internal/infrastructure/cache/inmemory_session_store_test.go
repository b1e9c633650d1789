package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySessionStore(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	session := identity.NewSession(uuid.New(), identity.RoleCustomer, time.Hour)
	require.NoError(t, store.Create(ctx, session))

	t.Run("get returns the stored session", func(t *testing.T) {
		got, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.SubjectID, got.SubjectID)
		assert.Equal(t, identity.RoleCustomer, got.Role)
	})

	t.Run("reads do not extend expiry", func(t *testing.T) {
		first, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		second, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	})

	t.Run("expired session is not found", func(t *testing.T) {
		store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { store.now = time.Now }()

		_, err := store.Get(ctx, session.ID)
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		other := identity.NewSession(uuid.New(), identity.RoleAdmin, time.Hour)
		require.NoError(t, store.Create(ctx, other))
		require.NoError(t, store.Delete(ctx, other.ID))

		_, err := store.Get(ctx, other.ID)
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, other.ID))
	})
}

func TestStoreFactory_RedisDisabled(t *testing.T) {
	stores, err := NewStoreFactory(config.RedisConfig{Enabled: false}).Create(context.Background())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &InMemorySessionStore{}, stores.Sessions)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
}

func TestStoreFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back when allowed", func(t *testing.T) {
		stores, err := NewStoreFactory(cfg).Create(context.Background())
		require.NoError(t, err)
		defer stores.Close()
		assert.IsType(t, &InMemorySessionStore{}, stores.Sessions)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := NewStoreFactory(cfg, WithInMemoryFallback(false)).Create(context.Background())
		assert.Error(t, err)
	})
}
