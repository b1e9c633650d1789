package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the status of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// IsValid checks if the status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped || target == StatusCancelled || target == StatusRefunded
	case StatusShipped:
		return target == StatusDelivered || target == StatusRefunded
	case StatusDelivered:
		return target == StatusRefunded
	case StatusCancelled, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// Item is a line of an order, priced at checkout time
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int64     `json:"quantity"`
}

// Amount returns the line amount in minor units
func (i Item) Amount() int64 {
	return i.UnitPrice * i.Quantity
}

// Order is the aggregate root tracking a purchase from checkout through fulfilment.
// All monetary amounts are integer minor units.
type Order struct {
	shared.BaseAggregateRoot
	UserID          *uuid.UUID
	Email           string
	Status          Status
	Items           []Item
	Currency        string
	Subtotal        int64
	Discount        int64
	PointsUsed      int64
	PointsEarned    *int64
	Total           int64
	CheckoutSession string
	PaymentIntent   string
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
}

// NewOrder creates a pending order. userID is nil for guest checkout.
func NewOrder(userID *uuid.UUID, email, currency string, items []Item) (*Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order requires a contact email")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order must contain at least one item")
	}

	var subtotal int64
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Order item requires a product")
		}
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError(shared.CodeValidation, "Order item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, shared.NewDomainError(shared.CodeValidation, "Order item price cannot be negative")
		}
		subtotal += item.Amount()
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Email:             email,
		Status:            StatusPending,
		Items:             items,
		Currency:          currency,
		Subtotal:          subtotal,
		Total:             subtotal,
	}
	return o, nil
}

// IsGuest returns true when the order has no member attached
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// IsSettled returns true once payment confirmation has been applied.
// It stays true through shipping, delivery and any later cancellation or refund.
func (o *Order) IsSettled() bool {
	return o.PaidAt != nil
}

// ApplyRedemption records the points redeemed at checkout and the resulting discount
func (o *Order) ApplyRedemption(pointsUsed, discount int64) error {
	if o.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot apply points to order in %s status", o.Status))
	}
	if pointsUsed < 0 || discount < 0 {
		return shared.NewDomainError(shared.CodeValidation, "Points and discount cannot be negative")
	}
	if pointsUsed > 0 && o.IsGuest() {
		return shared.NewDomainError(shared.CodeValidation, "Guest orders cannot redeem points")
	}
	if discount > o.Subtotal {
		return shared.NewDomainError(shared.CodeValidation, "Discount cannot exceed the order subtotal")
	}
	o.PointsUsed = pointsUsed
	o.Discount = discount
	o.Total = o.Subtotal - discount
	o.Touch()
	return nil
}

// AttachCheckoutSession stores the gateway session id created for this order
func (o *Order) AttachCheckoutSession(sessionID string) {
	o.CheckoutSession = sessionID
	o.Touch()
}

// MarkPaid applies a payment confirmation. It returns false without error when
// the order was already settled, so redelivered confirmations are no-ops.
func (o *Order) MarkPaid(paymentIntent string, at time.Time) (bool, error) {
	if o.IsSettled() {
		return false, nil
	}
	if !o.Status.CanTransitionTo(StatusPaid) {
		return false, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot mark order paid in %s status", o.Status))
	}
	o.Status = StatusPaid
	o.PaidAt = &at
	if paymentIntent != "" {
		o.PaymentIntent = paymentIntent
	}
	o.Touch()
	return true, nil
}

// RecordPointsEarned stores the points credited at settlement and raises OrderPaid
func (o *Order) RecordPointsEarned(points int64) error {
	if o.Status != StatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "Points can only be recorded on a paid order")
	}
	if points < 0 {
		return shared.NewDomainError(shared.CodeValidation, "Points earned cannot be negative")
	}
	o.PointsEarned = &points
	o.Touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// EarnedPoints returns the points credited at settlement, or 0 if unset
func (o *Order) EarnedPoints() int64 {
	if o.PointsEarned == nil {
		return 0
	}
	return *o.PointsEarned
}

// Ship moves a paid order to shipped
func (o *Order) Ship(at time.Time) error {
	if err := o.transition(StatusShipped); err != nil {
		return err
	}
	o.ShippedAt = &at
	return nil
}

// Deliver moves a shipped order to delivered
func (o *Order) Deliver(at time.Time) error {
	if err := o.transition(StatusDelivered); err != nil {
		return err
	}
	o.DeliveredAt = &at
	return nil
}

// Cancel cancels a pending or paid order
func (o *Order) Cancel(at time.Time) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	o.CancelledAt = &at
	return nil
}

// Refund refunds a settled order
func (o *Order) Refund(at time.Time) error {
	if err := o.transition(StatusRefunded); err != nil {
		return err
	}
	o.RefundedAt = &at
	return nil
}

// TransitionTo dispatches to the matching lifecycle method
func (o *Order) TransitionTo(target Status, at time.Time) error {
	switch target {
	case StatusShipped:
		return o.Ship(at)
	case StatusDelivered:
		return o.Deliver(at)
	case StatusCancelled:
		return o.Cancel(at)
	case StatusRefunded:
		return o.Refund(at)
	case StatusPaid:
		return shared.NewDomainError(shared.CodeInvalidState, "Orders are marked paid only by payment confirmation")
	}
	return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown order status %q", target))
}

// NeedsPointsReversal reports whether moving to target must undo settlement ledger effects
func (o *Order) NeedsPointsReversal(target Status) bool {
	return o.IsSettled() && !o.IsGuest() && (target == StatusCancelled || target == StatusRefunded)
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	previous := o.Status
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	return nil
}

