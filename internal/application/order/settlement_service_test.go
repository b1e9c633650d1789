package order

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("earning across a tier boundary promotes the member", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "moon@example.com", 480)
		o := f.pendingOrder(t, &userID, 3000, 0, 0)

		result, err := f.settlement().Settle(ctx, SettleInput{OrderID: o.ID, PaymentIntent: "pi_1"})
		require.NoError(t, err)

		assert.False(t, result.AlreadySettled)
		assert.Equal(t, int64(30), result.PointsEarned)
		assert.Equal(t, int64(510), result.Balance)
		assert.Equal(t, "ECLIPSE", result.Tier)
		assert.True(t, result.TierChanged)
		assert.Equal(t, int64(510), f.balance(t, userID))
		assert.Contains(t, f.publisher.types(), loyalty.EventTypeTierChanged)
		assert.Contains(t, f.publisher.types(), order.EventTypeOrderPaid)

		saved, err := f.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, saved.Status)
		assert.Equal(t, "pi_1", saved.PaymentIntent)
		assert.Equal(t, int64(30), saved.EarnedPoints())
	})

	t.Run("tier multiplier applies to the floored base", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "eclipse@example.com", 600)
		o := f.pendingOrder(t, &userID, 10000, 0, 0)

		result, err := f.settlement().Settle(ctx, SettleInput{OrderID: o.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(110), result.PointsEarned)
		assert.Equal(t, int64(710), f.balance(t, userID))
	})

	t.Run("redeemed points are spent before earning", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "spender@example.com", 1000)
		o := f.pendingOrder(t, &userID, 10000, 400, 2000)

		result, err := f.settlement().Settle(ctx, SettleInput{OrderID: o.ID, PointsUsed: 400, DiscountAmount: 2000})
		require.NoError(t, err)

		// 1000 - 400 = 600 (ECLIPSE); 8000 total earns floor(80 * 1.1) = 88
		assert.Equal(t, int64(400), result.PointsSpent)
		assert.Equal(t, int64(88), result.PointsEarned)
		assert.Equal(t, int64(688), f.balance(t, userID))

		entries, err := f.ledger.FindByReference(ctx, o.ID.String())
		require.NoError(t, err)
		require.Len(t, entries, 2)
		kinds := []loyalty.EntryKind{entries[0].Kind, entries[1].Kind}
		assert.ElementsMatch(t, []loyalty.EntryKind{loyalty.EntryKindSpend, loyalty.EntryKindEarn}, kinds)
	})

	t.Run("duplicate confirmation is a no-op", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "twice@example.com", 0)
		o := f.pendingOrder(t, &userID, 5000, 0, 0)
		svc := f.settlement()

		first, err := svc.Settle(ctx, SettleInput{OrderID: o.ID})
		require.NoError(t, err)
		second, err := svc.Settle(ctx, SettleInput{OrderID: o.ID})
		require.NoError(t, err)

		assert.False(t, first.AlreadySettled)
		assert.True(t, second.AlreadySettled)
		assert.Equal(t, int64(50), second.PointsEarned)
		assert.Equal(t, int64(50), f.balance(t, userID))

		entries, err := f.ledger.FindByReference(ctx, o.ID.String())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, 1, f.recorder.settled)
		assert.Equal(t, 1, f.recorder.duplicates)
	})

	t.Run("concurrent confirmations settle once", func(t *testing.T) {
		f := newFixture(t)
		userID := f.member(t, "race@example.com", 0)
		o := f.pendingOrder(t, &userID, 5000, 0, 0)
		svc := f.settlement()

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = svc.Settle(ctx, SettleInput{OrderID: o.ID})
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int64(50), f.balance(t, userID))
	})

	t.Run("guest order is paid without ledger entries", func(t *testing.T) {
		f := newFixture(t)
		o := f.pendingOrder(t, nil, 5000, 0, 0)

		result, err := f.settlement().Settle(ctx, SettleInput{OrderID: o.ID})
		require.NoError(t, err)
		assert.Zero(t, result.PointsEarned)

		entries, err := f.ledger.FindByReference(ctx, o.ID.String())
		require.NoError(t, err)
		assert.Empty(t, entries)

		saved, err := f.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, saved.Status)
	})

	t.Run("cancelled order cannot be settled", func(t *testing.T) {
		f := newFixture(t)
		o := f.pendingOrder(t, nil, 5000, 0, 0)
		_, err := f.orderService().CancelByCheckoutSession(ctx, o.CheckoutSession)
		require.NoError(t, err)

		_, err = f.settlement().Settle(ctx, SettleInput{OrderID: o.ID})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.settlement().Settle(ctx, SettleInput{OrderID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
