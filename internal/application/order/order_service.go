package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OrderService serves order queries and the post-payment lifecycle
type OrderService struct {
	orders    order.Repository
	scope     apployalty.TransactionScope
	tiers     *loyalty.TierTable
	publisher shared.EventPublisher
	recorder  SettlementRecorder
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders order.Repository,
	scope apployalty.TransactionScope,
	tiers *loyalty.TierTable,
	publisher shared.EventPublisher,
	recorder SettlementRecorder,
) *OrderService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &OrderService{
		orders:    orders,
		scope:     scope,
		tiers:     tiers,
		publisher: publisher,
		recorder:  recorder,
	}
}

// GetForUser returns one of the member's orders. Orders of other members are
// reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, shared.ErrNotFound
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListForUser returns a page of the member's orders
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[OrderResponse], error) {
	filter = filter.Normalize()
	orders, total, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, filter.Page, filter.PageSize), nil
}

// Get returns any order (admin)
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List returns a page of all orders (admin)
func (s *OrderService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[OrderResponse], error) {
	filter = filter.Normalize()
	if status, ok := filter.Filters["status"].(string); ok && status != "" && !order.Status(status).IsValid() {
		return shared.Paginated[OrderResponse]{}, shared.NewDomainError(shared.CodeValidation, "Unknown order status")
	}
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, filter.Page, filter.PageSize), nil
}

// ChangeStatus moves an order along its lifecycle on behalf of an administrator.
// Cancelling or refunding a settled member order reverses its ledger effects
// in the same transaction: the points earned are taken back and the points
// redeemed are returned.
func (s *OrderService) ChangeStatus(ctx context.Context, adminID, orderID uuid.UUID, target order.Status) (*OrderResponse, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown order status")
	}

	var (
		updated  *order.Order
		events   []shared.DomainEvent
		reversed bool
	)
	err := s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		events = nil
		o, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		previous := o.Status
		reversed = o.NeedsPointsReversal(target)
		if err := o.TransitionTo(target, time.Now()); err != nil {
			return err
		}

		details := map[string]any{"from": previous.String(), "to": target.String()}
		if reversed {
			account, err := repos.Accounts().FindByUserIDForUpdate(ctx, *o.UserID)
			if err != nil {
				return err
			}
			if err := reversePoints(account, o, s.tiers); err != nil {
				return err
			}
			if err := repos.Accounts().Save(ctx, account); err != nil {
				return err
			}
			details["points_earned_reversed"] = o.EarnedPoints()
			details["points_used_returned"] = o.PointsUsed
			details["balance"] = account.Balance()
			events = append(events, account.GetDomainEvents()...)
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		events = append(events, o.GetDomainEvents()...)
		updated = o
		return repos.Audit().Append(ctx, audit.NewEntry(audit.ActorAdmin, &adminID, "order.status_changed", "order", o.ID.String(), details))
	})
	if err != nil {
		return nil, err
	}

	if reversed {
		s.recorder.RecordReversal(ctx, target)
	}
	logger.L(ctx).Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", target.String()),
		zap.Bool("points_reversed", reversed),
	)
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			logger.L(ctx).Error("Failed to publish order events", zap.Error(err))
		}
	}

	resp := ToOrderResponse(updated)
	return &resp, nil
}

// CancelByCheckoutSession cancels the pending order of an expired gateway
// session. Orders that are no longer pending are left alone.
func (s *OrderService) CancelByCheckoutSession(ctx context.Context, sessionID string) (bool, error) {
	cancelled := false
	err := s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		found, err := repos.Orders().FindByCheckoutSession(ctx, sessionID)
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByIDForUpdate(ctx, found.ID)
		if err != nil {
			return err
		}
		if o.Status != order.StatusPending {
			return nil
		}
		if err := o.Cancel(time.Now()); err != nil {
			return err
		}
		cancelled = true
		return repos.Orders().Save(ctx, o)
	})
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return cancelled, err
}

// reversePoints posts the ADJUST/REFUND entries undoing a settlement and
// recomputes the tier
func reversePoints(account *loyalty.Account, o *order.Order, tiers *loyalty.TierTable) error {
	reference := o.ID.String()
	if earned := o.EarnedPoints(); earned > 0 {
		if _, err := account.Credit(-earned, loyalty.EntryKindAdjust, loyalty.EntrySourceRefund, reference, "Points earned reversed on "+o.Status.String()+" order"); err != nil {
			return err
		}
	}
	if o.PointsUsed > 0 {
		if _, err := account.Credit(o.PointsUsed, loyalty.EntryKindAdjust, loyalty.EntrySourceRefund, reference, "Points returned on "+o.Status.String()+" order"); err != nil {
			return err
		}
	}
	account.RefreshTier(tiers)
	return nil
}
