package order

import (
	"context"
	"errors"
	"time"

	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SettlementService applies verified payment confirmations to orders and the
// points ledger. Every confirmation runs in one transaction with the order and
// account rows locked, so redelivered or concurrent confirmations of the same
// order settle it once.
type SettlementService struct {
	scope     apployalty.TransactionScope
	cfg       loyalty.PointsConfig
	tiers     *loyalty.TierTable
	publisher shared.EventPublisher
	recorder  SettlementRecorder
	now       func() time.Time
}

// SettlementServiceOption configures a SettlementService
type SettlementServiceOption func(*SettlementService)

// WithSettlementRecorder sets the metrics recorder
func WithSettlementRecorder(r SettlementRecorder) SettlementServiceOption {
	return func(s *SettlementService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) SettlementServiceOption {
	return func(s *SettlementService) {
		s.now = now
	}
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	scope apployalty.TransactionScope,
	cfg loyalty.PointsConfig,
	tiers *loyalty.TierTable,
	publisher shared.EventPublisher,
	opts ...SettlementServiceOption,
) *SettlementService {
	s := &SettlementService{
		scope:     scope,
		cfg:       cfg,
		tiers:     tiers,
		publisher: publisher,
		recorder:  noopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle moves a pending order to paid. For a member order it appends the
// SPEND entry for redeemed points, then the EARN entry computed at the tier
// held before earning, and finally recomputes the tier. A confirmation for an
// order that is already settled succeeds with AlreadySettled set.
func (s *SettlementService) Settle(ctx context.Context, input SettleInput) (*SettlementResult, error) {
	log := logger.L(ctx).With(zap.String("order_id", input.OrderID.String()))
	result := &SettlementResult{OrderID: input.OrderID}
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		events = nil
		o, err := repos.Orders().FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}

		applied, err := o.MarkPaid(input.PaymentIntent, s.now())
		if err != nil {
			return err
		}
		if !applied {
			result.AlreadySettled = true
			result.PointsEarned = o.EarnedPoints()
			return nil
		}

		if o.PointsUsed != input.PointsUsed || o.Discount != input.DiscountAmount {
			log.Warn("Confirmation metadata differs from order, using order values",
				zap.Int64("metadata_points_used", input.PointsUsed),
				zap.Int64("order_points_used", o.PointsUsed),
				zap.Int64("metadata_discount", input.DiscountAmount),
				zap.Int64("order_discount", o.Discount),
			)
		}

		var earned int64
		if !o.IsGuest() {
			account, err := repos.Accounts().FindByUserIDForUpdate(ctx, *o.UserID)
			if err != nil {
				return err
			}
			earned, err = s.applyToAccount(account, o)
			if err != nil {
				return err
			}
			if err := repos.Accounts().Save(ctx, account); err != nil {
				return err
			}
			result.PointsSpent = o.PointsUsed
			result.Balance = account.Balance()
			result.Tier = account.TierName()
			result.TierChanged = len(account.GetDomainEvents()) > 0
			events = append(events, account.GetDomainEvents()...)
		}

		if err := o.RecordPointsEarned(earned); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		result.PointsEarned = earned
		events = append(events, o.GetDomainEvents()...)

		return repos.Audit().Append(ctx, audit.NewEntry(audit.ActorGateway, nil, "order.settled", "order", o.ID.String(), map[string]any{
			"payment_intent": o.PaymentIntent,
			"points_used":    o.PointsUsed,
			"points_earned":  earned,
			"total":          o.Total,
		}))
	})

	switch {
	case errors.Is(err, shared.ErrDuplicateSettlement):
		// A concurrent confirmation committed the same ledger entries first.
		log.Info("Order settled by a concurrent confirmation")
		s.recorder.RecordDuplicateConfirmation(ctx)
		return &SettlementResult{OrderID: input.OrderID, AlreadySettled: true}, nil
	case err != nil:
		return nil, err
	}

	if result.AlreadySettled {
		log.Info("Duplicate payment confirmation ignored")
		s.recorder.RecordDuplicateConfirmation(ctx)
		return result, nil
	}

	s.recorder.RecordSettlement(ctx, result.PointsEarned, result.PointsSpent)
	log.Info("Order settled",
		zap.Int64("points_spent", result.PointsSpent),
		zap.Int64("points_earned", result.PointsEarned),
		zap.Int64("balance", result.Balance),
		zap.String("tier", result.Tier),
	)
	s.publish(ctx, events)
	return result, nil
}

// applyToAccount posts the SPEND and EARN entries for a newly paid order and
// returns the points earned
func (s *SettlementService) applyToAccount(account *loyalty.Account, o *order.Order) (int64, error) {
	reference := o.ID.String()
	if o.PointsUsed > 0 {
		if _, err := account.Credit(-o.PointsUsed, loyalty.EntryKindSpend, loyalty.EntrySourceOrder, reference, "Points redeemed on order"); err != nil {
			return 0, err
		}
	}

	tier := account.CurrentTier(s.tiers)
	earned := loyalty.PointsEarned(s.cfg, o.Total, tier)
	if earned > 0 {
		if _, err := account.Credit(earned, loyalty.EntryKindEarn, loyalty.EntrySourceOrder, reference, "Points earned on order"); err != nil {
			return 0, err
		}
	}

	account.RefreshTier(s.tiers)
	return earned, nil
}

func (s *SettlementService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("Failed to publish settlement events", zap.Error(err))
	}
}
