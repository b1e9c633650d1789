package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
)

// GatewayCheckoutRequest is what the payment gateway needs to open a hosted
// checkout for a pending order. Amounts are minor units.
type GatewayCheckoutRequest struct {
	OrderID        uuid.UUID
	UserID         *uuid.UUID
	Email          string
	Currency       string
	Items          []order.Item
	PointsUsed     int64
	DiscountAmount int64
}

// Checkout session metadata keys. The gateway adapter writes them and the
// webhook service reads them back.
const (
	MetadataOrderID        = "order_id"
	MetadataUserID         = "user_id"
	MetadataPointsUsed     = "points_used"
	MetadataDiscountAmount = "discount_amount"
)

// GatewaySession is a hosted checkout created by the gateway
type GatewaySession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// PaymentGateway creates hosted checkout sessions
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req GatewayCheckoutRequest) (*GatewaySession, error)
}

// SettlementRecorder receives settlement outcomes for metrics
type SettlementRecorder interface {
	RecordSettlement(ctx context.Context, pointsEarned, pointsSpent int64)
	RecordDuplicateConfirmation(ctx context.Context)
	RecordReversal(ctx context.Context, status order.Status)
}

type noopRecorder struct{}

func (noopRecorder) RecordSettlement(context.Context, int64, int64) {}
func (noopRecorder) RecordDuplicateConfirmation(context.Context)    {}
func (noopRecorder) RecordReversal(context.Context, order.Status)   {}
