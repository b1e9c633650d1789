package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

// EventVerifier checks a webhook signature and parses the event
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// OrderSettler applies a payment confirmation
type OrderSettler interface {
	Settle(ctx context.Context, input apporder.SettleInput) (*apporder.SettlementResult, error)
}

// CheckoutCanceller cancels the pending order behind an abandoned session
type CheckoutCanceller interface {
	CancelByCheckoutSession(ctx context.Context, sessionID string) (bool, error)
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	verifier    EventVerifier
	settler     OrderSettler
	canceller   CheckoutCanceller
	orders      order.Repository
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	logger      *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Verifier    EventVerifier
	Settler     OrderSettler
	Canceller   CheckoutCanceller
	Orders      order.Repository
	Idempotency shared.IdempotencyStore
	// IdempotencyTTL defaults to shared.DefaultIdempotencyConfig().TTL
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &StripeWebhookService{
		verifier:    cfg.Verifier,
		settler:     cfg.Settler,
		canceller:   cfg.Canceller,
		orders:      cfg.Orders,
		idempotency: cfg.Idempotency,
		ttl:         cfg.IdempotencyTTL,
		logger:      cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and processes a Stripe webhook event. A returned
// error other than an invalid signature means the event should be redelivered;
// its idempotency mark is removed so the retry is processed.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verifier.ConstructEvent(payload, signature)
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		if errors.Is(err, shared.ErrInvalidSignature) {
			return nil, err
		}
		return nil, shared.WrapDomainError(shared.CodeInvalidSignature, shared.ErrInvalidSignature.Message, err)
	}

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)
	log.Info("Processing Stripe webhook event")

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	if s.idempotency != nil && event.ID != "" {
		fresh, err := s.idempotency.MarkProcessed(ctx, event.ID, s.ttl)
		switch {
		case err != nil:
			// Settlement is idempotent on its own, so a store outage only costs a re-run
			log.Warn("Idempotency store unavailable, processing anyway", zap.Error(err))
		case !fresh:
			log.Info("Duplicate webhook event acknowledged")
			result.Duplicate = true
			result.Message = "Event already processed"
			return result, nil
		}
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleSessionCompleted(ctx, event, result)
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		err = s.handlePaymentSucceeded(ctx, event, result)
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		err = s.handleSessionAbandoned(ctx, event, result)
	default:
		log.Debug("Unhandled webhook event type")
		result.Message = "Event type not handled"
	}

	if err != nil {
		log.Error("Failed to process webhook event", zap.Error(err))
		if s.idempotency != nil && event.ID != "" {
			if unmarkErr := s.idempotency.Unmark(ctx, event.ID); unmarkErr != nil {
				log.Warn("Failed to clear idempotency mark", zap.Error(unmarkErr))
			}
		}
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	return result, nil
}

// handleSessionCompleted settles the order when the session was paid
// synchronously. Delayed payment methods settle on async_payment_succeeded.
func (s *StripeWebhookService) handleSessionCompleted(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	sess, err := decodeSession(event)
	if err != nil {
		return err
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.logger.Info("Checkout completed without payment, awaiting async confirmation",
			zap.String("session_id", sess.ID),
			zap.String("payment_status", string(sess.PaymentStatus)))
		result.Message = "Awaiting payment"
		return nil
	}
	return s.settle(ctx, sess, result)
}

// handlePaymentSucceeded handles checkout.session.async_payment_succeeded events
func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	sess, err := decodeSession(event)
	if err != nil {
		return err
	}
	return s.settle(ctx, sess, result)
}

// handleSessionAbandoned cancels the pending order so its reserved points are released
func (s *StripeWebhookService) handleSessionAbandoned(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	sess, err := decodeSession(event)
	if err != nil {
		return err
	}
	cancelled, err := s.canceller.CancelByCheckoutSession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("cancel order for session %s: %w", sess.ID, err)
	}
	if cancelled {
		result.Message = "Order cancelled"
		s.logger.Info("Cancelled order for abandoned checkout", zap.String("session_id", sess.ID))
	} else {
		result.Message = "No pending order for session"
	}
	return nil
}

func (s *StripeWebhookService) settle(ctx context.Context, sess *stripe.CheckoutSession, result *WebhookResult) error {
	orderID, err := s.resolveOrderID(ctx, sess)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Not one of ours; acknowledge so Stripe stops retrying
			s.logger.Warn("No order found for checkout session", zap.String("session_id", sess.ID))
			result.Message = "Order not found"
			return nil
		}
		return err
	}

	input := apporder.SettleInput{
		OrderID:        orderID,
		PointsUsed:     s.metadataInt(sess, apporder.MetadataPointsUsed),
		DiscountAmount: s.metadataInt(sess, apporder.MetadataDiscountAmount),
	}
	if sess.PaymentIntent != nil {
		input.PaymentIntent = sess.PaymentIntent.ID
	}

	settlement, err := s.settler.Settle(ctx, input)
	switch {
	case errors.Is(err, shared.ErrInvalidState):
		// e.g. an administrator cancelled the order before the payment landed
		s.logger.Warn("Payment confirmed for an order that cannot be settled",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		result.Message = "Order not payable"
		return nil
	case err != nil:
		return fmt.Errorf("settle order %s: %w", orderID, err)
	}

	if settlement.AlreadySettled {
		result.Message = "Order already settled"
	} else {
		result.Message = "Order settled"
	}
	return nil
}

// resolveOrderID reads the order id from the session metadata, then the client
// reference, then falls back to looking the session up
func (s *StripeWebhookService) resolveOrderID(ctx context.Context, sess *stripe.CheckoutSession) (uuid.UUID, error) {
	for _, candidate := range []string{sess.Metadata[apporder.MetadataOrderID], sess.ClientReferenceID} {
		if candidate == "" {
			continue
		}
		if id, err := uuid.Parse(candidate); err == nil {
			return id, nil
		}
	}
	if sess.ID == "" || s.orders == nil {
		return uuid.Nil, shared.ErrNotFound
	}
	o, err := s.orders.FindByCheckoutSession(ctx, sess.ID)
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

func (s *StripeWebhookService) metadataInt(sess *stripe.CheckoutSession, key string) int64 {
	raw, ok := sess.Metadata[key]
	if !ok || raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("Ignoring malformed session metadata",
			zap.String("session_id", sess.ID),
			zap.String("key", key),
			zap.String("value", raw))
		return 0
	}
	return v
}

func decodeSession(event stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Webhook event has no data")
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	return &sess, nil
}
