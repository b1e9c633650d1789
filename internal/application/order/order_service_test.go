package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	settled := func(t *testing.T, f *fixture, userID uuid.UUID) *order.Order {
		t.Helper()
		o := f.pendingOrder(t, &userID, 10000, 400, 2000)
		_, err := f.settlement().Settle(ctx, SettleInput{OrderID: o.ID})
		require.NoError(t, err)
		return o
	}

	t.Run("refund reverses earned and redeemed points", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "refund@example.com", 1000)
		o := settled(t, f, userID)
		require.Equal(t, int64(688), f.balance(t, userID))

		resp, err := f.orderService().ChangeStatus(ctx, adminID, o.ID, order.StatusRefunded)
		require.NoError(t, err)
		assert.Equal(t, "refunded", resp.Status)

		assert.Equal(t, int64(1000), f.balance(t, userID))
		assert.Equal(t, []order.Status{order.StatusRefunded}, f.recorder.reversals)

		entries, err := f.ledger.FindByReference(ctx, o.ID.String())
		require.NoError(t, err)
		var adjustments int
		for _, e := range entries {
			if e.Kind == loyalty.EntryKindAdjust {
				assert.Equal(t, loyalty.EntrySourceRefund, e.Source)
				adjustments++
			}
		}
		assert.Equal(t, 2, adjustments)

		logs, total, err := persistence.NewGormAuditLogRepository(f.db.DB).FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		actions := []string{logs[0].Action, logs[1].Action}
		assert.ElementsMatch(t, []string{"order.settled", "order.status_changed"}, actions)
	})

	t.Run("shipping keeps the ledger untouched", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "ship@example.com", 1000)
		o := settled(t, f, userID)

		_, err := f.orderService().ChangeStatus(ctx, adminID, o.ID, order.StatusShipped)
		require.NoError(t, err)
		_, err = f.orderService().ChangeStatus(ctx, adminID, o.ID, order.StatusDelivered)
		require.NoError(t, err)

		assert.Equal(t, int64(688), f.balance(t, userID))
		assert.Empty(t, f.recorder.reversals)
	})

	t.Run("cancelling an unpaid order posts nothing", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "unpaid@example.com", 1000)
		o := f.pendingOrder(t, &userID, 10000, 400, 2000)

		_, err := f.orderService().ChangeStatus(ctx, adminID, o.ID, order.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), f.balance(t, userID))

		entries, err := f.ledger.FindByReference(ctx, o.ID.String())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("invalid transitions", func(t *testing.T) {
		f := newFixture(t)
		o := f.pendingOrder(t, nil, 5000, 0, 0)
		svc := f.orderService()

		_, err := svc.ChangeStatus(ctx, adminID, o.ID, order.StatusShipped)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		_, err = svc.ChangeStatus(ctx, adminID, o.ID, order.StatusPaid)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		_, err = svc.ChangeStatus(ctx, adminID, o.ID, order.Status("lost"))
		assert.ErrorIs(t, err, shared.ErrValidationFailed)

		_, err = svc.ChangeStatus(ctx, adminID, uuid.New(), order.StatusCancelled)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "terminal@example.com", 1000)
		o := settled(t, f, userID)
		svc := f.orderService()

		_, err := svc.ChangeStatus(ctx, adminID, o.ID, order.StatusRefunded)
		require.NoError(t, err)
		_, err = svc.ChangeStatus(ctx, adminID, o.ID, order.StatusCancelled)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, int64(1000), f.balance(t, userID))
	})
}

func TestOrderService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.member(t, "owner@example.com", 0)
	other := f.member(t, "other@example.com", 0)
	o := f.pendingOrder(t, &owner, 2500, 0, 0)
	f.pendingOrder(t, &other, 1500, 0, 0)
	svc := f.orderService()

	t.Run("owner sees the order", func(t *testing.T) {
		resp, err := svc.GetForUser(ctx, owner, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), resp.Total)
		assert.Contains(t, resp.TotalFormatted, "25.00")
	})

	t.Run("other members get not found", func(t *testing.T) {
		_, err := svc.GetForUser(ctx, other, o.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("member listing is scoped", func(t *testing.T) {
		page, err := svc.ListForUser(ctx, owner, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, o.ID, page.Items[0].ID)
	})

	t.Run("admin listing with status filter", func(t *testing.T) {
		page, err := svc.List(ctx, shared.Filter{Filters: map[string]any{"status": "pending"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)

		_, err = svc.List(ctx, shared.Filter{Filters: map[string]any{"status": "bogus"}})
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestOrderService_CancelByCheckoutSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.member(t, "expired@example.com", 1000)
	o := f.pendingOrder(t, &userID, 10000, 400, 2000)
	svc := f.orderService()

	cancelled, err := svc.CancelByCheckoutSession(ctx, o.CheckoutSession)
	require.NoError(t, err)
	assert.True(t, cancelled)

	reserved, err := f.orders.SumPendingPointsUsed(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, reserved)

	cancelled, err = svc.CancelByCheckoutSession(ctx, o.CheckoutSession)
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = svc.CancelByCheckoutSession(ctx, "cs_unknown")
	require.NoError(t, err)
	assert.False(t, cancelled)
}
