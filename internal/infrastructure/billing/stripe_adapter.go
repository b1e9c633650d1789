package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeAdapter creates hosted checkout sessions and verifies webhook
// signatures. It uses its own API client rather than the package-level key.
type StripeAdapter struct {
	config *StripeConfig
	api    *client.API
	logger *zap.Logger
}

// StripeAdapterOption configures a StripeAdapter
type StripeAdapterOption func(*stripe.Backends)

// WithBackend routes all API calls through backend (tests use a fake)
func WithBackend(backend stripe.Backend) StripeAdapterOption {
	return func(b *stripe.Backends) {
		b.API = backend
		b.Connect = backend
		b.Uploads = backend
	}
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger, opts ...StripeAdapterOption) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var backends *stripe.Backends
	if len(opts) > 0 {
		backends = &stripe.Backends{}
		for _, opt := range opts {
			opt(backends)
		}
	}

	return &StripeAdapter{
		config: config,
		api:    client.New(config.SecretKey, backends),
		logger: logger.Named("stripe"),
	}, nil
}

// CreateCheckoutSession opens a hosted payment-mode checkout for a pending
// order. A points discount is applied through a one-off amount coupon.
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, req apporder.GatewayCheckoutRequest) (*apporder.GatewaySession, error) {
	orderID := req.OrderID.String()
	currency := req.Currency
	if currency == "" {
		currency = a.config.Currency
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(a.config.SuccessURLFor(orderID)),
		CancelURL:         stripe.String(a.config.CancelURL),
		ClientReferenceID: stripe.String(orderID),
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitPrice),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params.AddMetadata(apporder.MetadataOrderID, orderID)
	params.AddMetadata(apporder.MetadataPointsUsed, strconv.FormatInt(req.PointsUsed, 10))
	params.AddMetadata(apporder.MetadataDiscountAmount, strconv.FormatInt(req.DiscountAmount, 10))
	if req.UserID != nil {
		params.AddMetadata(apporder.MetadataUserID, req.UserID.String())
	}

	if req.DiscountAmount > 0 {
		couponID, err := a.ensureCoupon(ctx, currency, req.DiscountAmount)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(couponID)}}
	}

	sess, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		a.logger.Error("Failed to create checkout session",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeGateway, "Failed to create checkout session", err)
	}

	a.logger.Info("Created checkout session",
		zap.String("order_id", orderID),
		zap.String("session_id", sess.ID),
		zap.Int64("discount_amount", req.DiscountAmount))

	result := &apporder.GatewaySession{ID: sess.ID, URL: sess.URL}
	if sess.ExpiresAt > 0 {
		result.ExpiresAt = time.Unix(sess.ExpiresAt, 0)
	}
	return result, nil
}

// CouponID returns the deterministic id of the one-off coupon worth amount
func CouponID(currency string, amount int64) string {
	return fmt.Sprintf("points-discount-%s-%d", currency, amount)
}

// ensureCoupon returns the coupon for amount, creating it on first use.
// Coupons are keyed by value so every order with the same discount shares one.
func (a *StripeAdapter) ensureCoupon(ctx context.Context, currency string, amount int64) (string, error) {
	id := CouponID(currency, amount)

	getParams := &stripe.CouponParams{}
	getParams.Context = ctx
	if _, err := a.api.Coupons.Get(id, getParams); err == nil {
		return id, nil
	} else if !isStripeCode(err, stripe.ErrorCodeResourceMissing) {
		return "", shared.WrapDomainError(shared.CodeGateway, "Failed to look up discount coupon", err)
	}

	params := &stripe.CouponParams{
		ID:        stripe.String(id),
		AmountOff: stripe.Int64(amount),
		Currency:  stripe.String(currency),
		Duration:  stripe.String(string(stripe.CouponDurationOnce)),
		Name:      stripe.String("Points discount"),
	}
	params.Context = ctx
	if _, err := a.api.Coupons.New(params); err != nil {
		// Another checkout created it first
		if isStripeCode(err, stripe.ErrorCodeResourceAlreadyExists) {
			return id, nil
		}
		return "", shared.WrapDomainError(shared.CodeGateway, "Failed to create discount coupon", err)
	}

	a.logger.Debug("Created discount coupon", zap.String("coupon_id", id))
	return id, nil
}

// ConstructEvent verifies the Stripe-Signature header and parses the event
func (a *StripeAdapter) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	tolerance := a.config.WebhookTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, a.config.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, shared.WrapDomainError(shared.CodeInvalidSignature, shared.ErrInvalidSignature.Message, err)
	}
	return event, nil
}

func isStripeCode(err error, code stripe.ErrorCode) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == code
}

var _ apporder.PaymentGateway = (*StripeAdapter)(nil)
