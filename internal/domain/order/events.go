package order

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeOrderPaid          = "OrderPaid"
	EventTypeOrderStatusChanged = "OrderStatusChanged"

	AggregateTypeOrder = "Order"
)

// OrderPaidEvent is raised when a payment confirmation has been settled
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID  `json:"order_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Total        int64      `json:"total"`
	PointsUsed   int64      `json:"points_used"`
	PointsEarned int64      `json:"points_earned"`
}

// NewOrderPaidEvent creates an OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		Total:           o.Total,
		PointsUsed:      o.PointsUsed,
		PointsEarned:    o.EarnedPoints(),
	}
}

// OrderStatusChangedEvent is raised for lifecycle moves after payment
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID  `json:"order_id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	PreviousStatus Status     `json:"previous_status"`
	NewStatus      Status     `json:"new_status"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, previous Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		PreviousStatus:  previous,
		NewStatus:       o.Status,
	}
}
