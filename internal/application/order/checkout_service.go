package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// MaxLineQuantity is the largest quantity accepted for one cart line
const MaxLineQuantity = 99

// CheckoutService prices a cart, reserves redeemed points on a pending order
// and opens a hosted checkout with the payment gateway
type CheckoutService struct {
	scope    apployalty.TransactionScope
	products catalog.ProductRepository
	gateway  PaymentGateway
	cfg      loyalty.PointsConfig
	currency string
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	scope apployalty.TransactionScope,
	products catalog.ProductRepository,
	gateway PaymentGateway,
	cfg loyalty.PointsConfig,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		scope:    scope,
		products: products,
		gateway:  gateway,
		cfg:      cfg,
		currency: currency,
	}
}

// CreateCheckout creates a pending order and its gateway checkout session.
// The order is saved before the gateway call; if the gateway fails the order
// is cancelled, which releases any reserved points.
func (s *CheckoutService) CreateCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	items, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if input.UserID == nil && input.RequestedPoints != nil && *input.RequestedPoints > 0 {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Sign in to redeem points")
	}

	var o *order.Order
	err = s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		email := input.Email
		if input.UserID != nil {
			user, err := repos.Users().FindByID(ctx, *input.UserID)
			if err != nil {
				return err
			}
			email = user.Email
		}

		o, err = order.NewOrder(input.UserID, email, s.currency, items)
		if err != nil {
			return err
		}

		if input.UserID != nil {
			if err := s.reservePoints(ctx, repos, o, input.RequestedPoints); err != nil {
				return err
			}
		}
		return repos.Orders().Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(zap.String("order_id", o.ID.String()))

	session, err := s.gateway.CreateCheckoutSession(ctx, GatewayCheckoutRequest{
		OrderID:        o.ID,
		UserID:         o.UserID,
		Email:          o.Email,
		Currency:       o.Currency,
		Items:          o.Items,
		PointsUsed:     o.PointsUsed,
		DiscountAmount: o.Discount,
	})
	if err != nil {
		log.Error("Gateway checkout failed, cancelling order", zap.Error(err))
		if cancelErr := s.cancelPending(ctx, o.ID); cancelErr != nil {
			log.Error("Failed to cancel order after gateway failure", zap.Error(cancelErr))
		}
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == shared.CodeGateway {
			return nil, err
		}
		return nil, shared.WrapDomainError(shared.CodeGateway, shared.ErrGateway.Message, err)
	}

	err = s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		current, err := repos.Orders().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		current.AttachCheckoutSession(session.ID)
		return repos.Orders().Save(ctx, current)
	})
	if err != nil {
		return nil, fmt.Errorf("attach checkout session: %w", err)
	}

	log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("subtotal", o.Subtotal),
		zap.Int64("points_used", o.PointsUsed),
		zap.Int64("total", o.Total),
	)

	return &CheckoutResult{
		OrderID:    o.ID,
		SessionID:  session.ID,
		URL:        session.URL,
		Subtotal:   o.Subtotal,
		Discount:   o.Discount,
		PointsUsed: o.PointsUsed,
		Total:      o.Total,
	}, nil
}

// reservePoints computes the redemption against the member's available points.
// The account row lock serializes concurrent checkouts of the same member so
// two pending orders cannot reserve the same points.
func (s *CheckoutService) reservePoints(ctx context.Context, repos apployalty.TransactionalRepositories, o *order.Order, requested *int64) error {
	if requested != nil && *requested <= 0 {
		return nil
	}

	account, err := repos.Accounts().FindByUserIDForUpdate(ctx, *o.UserID)
	if err != nil {
		return err
	}
	reserved, err := repos.Orders().SumPendingPointsUsed(ctx, *o.UserID)
	if err != nil {
		return err
	}
	available := max(account.Balance()-reserved, 0)

	redemption := loyalty.ComputeRedemption(s.cfg, o.Subtotal, available, requested)
	if !redemption.MinOrderMet {
		if requested != nil {
			return shared.ErrMinOrderNotMet
		}
		return nil
	}
	if redemption.PointsToUse == 0 {
		if requested != nil {
			return shared.ErrInsufficientPoints
		}
		return nil
	}
	return o.ApplyRedemption(redemption.PointsToUse, redemption.DiscountAmount)
}

// priceItems merges duplicate lines and prices them from the catalog
func (s *CheckoutService) priceItems(ctx context.Context, lines []CheckoutItemInput) ([]order.Item, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Cart is empty")
	}

	quantities := make(map[uuid.UUID]int64, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Quantity must be between 1 and %d", MaxLineQuantity))
		}
		if _, seen := quantities[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]order.Item, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Product %s not found", id))
		}
		if !p.IsPurchasable() {
			return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Product %s is not available", p.Name))
		}
		items = append(items, order.Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  min(quantities[id], MaxLineQuantity),
		})
	}
	return items, nil
}

func (s *CheckoutService) cancelPending(ctx context.Context, orderID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos apployalty.TransactionalRepositories) error {
		o, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != order.StatusPending {
			return nil
		}
		if err := o.Cancel(time.Now()); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, o)
	})
}
