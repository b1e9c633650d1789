package loyalty_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type pointsFixture struct {
	db        *persistence.Database
	orders    *persistence.GormOrderRepository
	tiers     *loyalty.TierTable
	publisher *recordingPublisher
	service   *apployalty.PointsService
}

func newPointsFixture(t *testing.T) *pointsFixture {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	tiers := loyalty.DefaultTierTable()
	orders := persistence.NewGormOrderRepository(db.DB)
	publisher := &recordingPublisher{}
	return &pointsFixture{
		db:        db,
		orders:    orders,
		tiers:     tiers,
		publisher: publisher,
		service: apployalty.NewPointsService(
			persistence.NewGormAccountRepository(db.DB),
			persistence.NewGormLedgerRepository(db.DB),
			orders,
			persistence.NewGormTransactionScope(db.DB),
			loyalty.DefaultPointsConfig(),
			tiers,
			"usd",
			publisher,
		),
	}
}

func (f *pointsFixture) reserve(t *testing.T, userID uuid.UUID, points, discount int64) {
	t.Helper()
	o, err := order.NewOrder(&userID, "member@example.com", "usd", []order.Item{
		{ProductID: uuid.New(), Name: "Kettle", UnitPrice: 5000, Quantity: 1},
	})
	require.NoError(t, err)
	require.NoError(t, o.ApplyRedemption(points, discount))
	require.NoError(t, f.orders.Save(context.Background(), o))
}

func int64Ptr(v int64) *int64 { return &v }

func TestPointsService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newPointsFixture(t)

	t.Run("middle tier with a reservation", func(t *testing.T) {
		userID := persistencetest.CreateMember(t, f.db, "eclipse@example.com", 900, f.tiers).ID
		f.reserve(t, userID, 200, 1000)

		summary, err := f.service.Summary(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(900), summary.Balance)
		assert.Equal(t, int64(200), summary.Reserved)
		assert.Equal(t, int64(700), summary.Available)
		assert.Equal(t, "ECLIPSE", summary.Tier)
		assert.Equal(t, "1.1", summary.BonusMultiplier.String())
		require.NotNil(t, summary.NextTier)
		assert.Equal(t, "NOVA", *summary.NextTier)
		assert.Equal(t, int64(600), summary.PointsToNext)
		assert.Equal(t, int64(20), summary.Redemption.PointsPerUnitDiscount)
		assert.Equal(t, int64(1000), summary.Redemption.MinOrderForRedemption)
	})

	t.Run("top tier has no next tier", func(t *testing.T) {
		userID := persistencetest.CreateMember(t, f.db, "nova@example.com", 2000, f.tiers).ID

		summary, err := f.service.Summary(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "NOVA", summary.Tier)
		assert.Nil(t, summary.NextTier)
		assert.Zero(t, summary.PointsToNext)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := f.service.Summary(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPointsService_Preview(t *testing.T) {
	ctx := context.Background()
	f := newPointsFixture(t)
	userID := persistencetest.CreateMember(t, f.db, "preview@example.com", 1000, f.tiers).ID

	tests := []struct {
		name      string
		userID    *uuid.UUID
		subtotal  int64
		points    *int64
		minMet    bool
		toUse     int64
		discount  int64
		available int64
	}{
		{name: "maximum redemption", userID: &userID, subtotal: 10000, minMet: true, toUse: 400, discount: 2000, available: 1000},
		{name: "explicit request is capped", userID: &userID, subtotal: 10000, points: int64Ptr(5000), minMet: true, toUse: 400, discount: 2000, available: 1000},
		{name: "partial request", userID: &userID, subtotal: 10000, points: int64Ptr(130), minMet: true, toUse: 130, discount: 600, available: 1000},
		{name: "below minimum order", userID: &userID, subtotal: 999, minMet: false, available: 1000},
		{name: "guest", subtotal: 10000, minMet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := f.service.Preview(ctx, apployalty.PreviewInput{UserID: tt.userID, Subtotal: tt.subtotal, Points: tt.points})
			require.NoError(t, err)
			assert.Equal(t, tt.minMet, quote.MinOrderMet)
			assert.Equal(t, tt.toUse, quote.PointsToUse)
			assert.Equal(t, tt.discount, quote.DiscountAmount)
			assert.Equal(t, tt.available, quote.Available)
			assert.Equal(t, tt.subtotal-tt.discount, quote.TotalAfter)
		})
	}

	t.Run("negative subtotal", func(t *testing.T) {
		_, err := f.service.Preview(ctx, apployalty.PreviewInput{UserID: &userID, Subtotal: -1})
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("preview does not reserve", func(t *testing.T) {
		_, err := f.service.Preview(ctx, apployalty.PreviewInput{UserID: &userID, Subtotal: 10000})
		require.NoError(t, err)
		summary, err := f.service.Summary(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, summary.Reserved)
	})
}

func TestPointsService_History(t *testing.T) {
	ctx := context.Background()
	f := newPointsFixture(t)
	adminID := uuid.New()
	userID := persistencetest.CreateMember(t, f.db, "history@example.com", 100, f.tiers).ID

	for _, amount := range []int64{10, 20, 30} {
		_, err := f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: amount, Reason: "goodwill"})
		require.NoError(t, err)
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 2
	page, err := f.service.History(ctx, userID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(160), page.Items[0].BalanceAfter)
	assert.Equal(t, "ADJUST", page.Items[0].Kind)
	assert.Equal(t, "ADMIN", page.Items[0].Source)
	assert.Equal(t, adminID.String(), page.Items[0].ReferenceID)
}

func TestPointsService_Adjust(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	t.Run("credit crosses a tier", func(t *testing.T) {
		f := newPointsFixture(t)
		userID := persistencetest.CreateMember(t, f.db, "adjust@example.com", 450, f.tiers).ID

		result, err := f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: 100, Reason: " late delivery "})
		require.NoError(t, err)
		assert.Equal(t, int64(550), result.Balance)
		assert.Equal(t, "ECLIPSE", result.Tier)
		assert.True(t, result.TierChanged)

		cached, ledger := persistencetest.Balance(t, f.db, userID)
		assert.Equal(t, cached, ledger)

		types := make([]string, 0, len(f.publisher.events))
		for _, e := range f.publisher.events {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{loyalty.EventTypePointsAdjusted, loyalty.EventTypeTierChanged}, types)
		adjusted := f.publisher.events[0].(*loyalty.PointsAdjustedEvent)
		assert.Equal(t, "late delivery", adjusted.Reason)

		entries, total, err := persistence.NewGormAuditLogRepository(f.db.DB).FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "points.adjusted", entries[0].Action)
	})

	t.Run("debit cannot overdraw", func(t *testing.T) {
		f := newPointsFixture(t)
		userID := persistencetest.CreateMember(t, f.db, "overdraw@example.com", 50, f.tiers).ID

		_, err := f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: -51, Reason: "fraud"})
		assert.ErrorIs(t, err, shared.ErrInsufficientPoints)

		result, err := f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: -50, Reason: "fraud"})
		require.NoError(t, err)
		assert.Zero(t, result.Balance)
		assert.Len(t, f.publisher.events, 1)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newPointsFixture(t)
		userID := persistencetest.CreateMember(t, f.db, "invalid@example.com", 50, f.tiers).ID

		_, err := f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: 0, Reason: "noop"})
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
		_, err = f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: userID, Amount: 5, Reason: "   "})
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
		_, err = f.service.Adjust(ctx, apployalty.AdjustInput{AdminID: adminID, UserID: uuid.New(), Amount: 5, Reason: "missing"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
