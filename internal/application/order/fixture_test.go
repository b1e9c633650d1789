package order

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req GatewayCheckoutRequest) (*GatewaySession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewaySession), args.Error(1)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type countingRecorder struct {
	mu         sync.Mutex
	settled    int
	duplicates int
	reversals  []order.Status
}

func (r *countingRecorder) RecordSettlement(context.Context, int64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled++
}

func (r *countingRecorder) RecordDuplicateConfirmation(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates++
}

func (r *countingRecorder) RecordReversal(_ context.Context, status order.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reversals = append(r.reversals, status)
}

type fixture struct {
	db        *persistence.Database
	scope     *persistence.GormTransactionScope
	orders    *persistence.GormOrderRepository
	ledger    *persistence.GormLedgerRepository
	cfg       loyalty.PointsConfig
	tiers     *loyalty.TierTable
	publisher *capturingPublisher
	recorder  *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	return &fixture{
		db:        db,
		scope:     persistence.NewGormTransactionScope(db.DB),
		orders:    persistence.NewGormOrderRepository(db.DB),
		ledger:    persistence.NewGormLedgerRepository(db.DB),
		cfg:       loyalty.DefaultPointsConfig(),
		tiers:     loyalty.DefaultTierTable(),
		publisher: &capturingPublisher{},
		recorder:  &countingRecorder{},
	}
}

func (f *fixture) settlement() *SettlementService {
	return NewSettlementService(f.scope, f.cfg, f.tiers, f.publisher, WithSettlementRecorder(f.recorder))
}

func (f *fixture) orderService() *OrderService {
	return NewOrderService(f.orders, f.scope, f.tiers, f.publisher, f.recorder)
}

func (f *fixture) member(t *testing.T, email string, points int64) uuid.UUID {
	t.Helper()
	return persistencetest.CreateMember(t, f.db, email, points, f.tiers).ID
}

// pendingOrder saves a pending order with one line and an optional redemption
func (f *fixture) pendingOrder(t *testing.T, userID *uuid.UUID, subtotal, pointsUsed, discount int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(userID, "buyer@example.com", "usd", []order.Item{
		{ProductID: uuid.New(), Name: "Lamp", UnitPrice: subtotal, Quantity: 1},
	})
	require.NoError(t, err)
	if pointsUsed > 0 {
		require.NoError(t, o.ApplyRedemption(pointsUsed, discount))
	}
	o.AttachCheckoutSession("cs_" + o.ID.String())
	require.NoError(t, f.orders.Save(context.Background(), o))
	return o
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	cached, ledger := persistencetest.Balance(t, f.db, userID)
	require.Equal(t, ledger, cached, "cached balance must equal the ledger sum")
	return cached
}
