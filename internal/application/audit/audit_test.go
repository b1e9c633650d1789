package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTierChangedHandler(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	repo := persistence.NewGormAuditLogRepository(db.DB)
	handler := NewTierChangedHandler(repo, zap.NewNop())
	svc := NewAuditService(repo)

	assert.Equal(t, []string{loyalty.EventTypeTierChanged}, handler.EventTypes())

	userID := uuid.New()
	event := loyalty.NewTierChangedEvent(userID, "MOON", "ECLIPSE", 510)
	require.NoError(t, handler.Handle(ctx, event))

	filter := shared.DefaultFilter()
	filter.Filters["action"] = ActionTierChanged
	page, err := svc.List(ctx, filter)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)

	entry := page.Items[0]
	assert.Equal(t, "system", entry.ActorType)
	assert.Nil(t, entry.ActorID)
	assert.Equal(t, userID.String(), entry.EntityID)
	assert.Equal(t, "MOON", entry.Details["from"])
	assert.Equal(t, "ECLIPSE", entry.Details["to"])
	assert.EqualValues(t, 510, entry.Details["balance"])

	t.Run("rejects other events", func(t *testing.T) {
		err := handler.Handle(ctx, identity.NewUserRegisteredEvent(&identity.User{BaseAggregateRoot: shared.NewBaseAggregateRoot()}))
		assert.Error(t, err)
	})
}

func TestAuditService_List(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	repo := persistence.NewGormAuditLogRepository(db.DB)
	handler := NewTierChangedHandler(repo, zap.NewNop())
	svc := NewAuditService(repo)

	first, second := uuid.New(), uuid.New()
	require.NoError(t, handler.Handle(ctx, loyalty.NewTierChangedEvent(first, "MOON", "ECLIPSE", 500)))
	require.NoError(t, handler.Handle(ctx, loyalty.NewTierChangedEvent(second, "ECLIPSE", "NOVA", 1500)))
	require.NoError(t, handler.Handle(ctx, loyalty.NewTierChangedEvent(first, "ECLIPSE", "MOON", 20)))

	page, err := svc.List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	filter := shared.DefaultFilter()
	filter.Filters["entity_id"] = first.String()
	page, err = svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "MOON", page.Items[0].Details["to"])
}
