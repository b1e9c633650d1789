package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
)

// CheckoutItemInput is one requested cart line
type CheckoutItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

// CheckoutInput starts a checkout. UserID is nil for guests. RequestedPoints
// nil means "as many as allowed".
type CheckoutInput struct {
	UserID          *uuid.UUID
	Email           string
	Items           []CheckoutItemInput
	RequestedPoints *int64
}

// CheckoutResult is returned once the hosted checkout exists
type CheckoutResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	SessionID  string    `json:"session_id"`
	URL        string    `json:"url"`
	Subtotal   int64     `json:"subtotal"`
	Discount   int64     `json:"discount"`
	PointsUsed int64     `json:"points_used"`
	Total      int64     `json:"total"`
}

// SettleInput is a verified payment confirmation
type SettleInput struct {
	OrderID       uuid.UUID
	PaymentIntent string
	// PointsUsed and DiscountAmount echo the gateway metadata; the order row is authoritative
	PointsUsed     int64
	DiscountAmount int64
}

// SettlementResult reports what a confirmation did
type SettlementResult struct {
	OrderID        uuid.UUID `json:"order_id"`
	AlreadySettled bool      `json:"already_settled"`
	PointsSpent    int64     `json:"points_spent"`
	PointsEarned   int64     `json:"points_earned"`
	Balance        int64     `json:"balance"`
	Tier           string    `json:"tier,omitempty"`
	TierChanged    bool      `json:"tier_changed"`
}

// ItemResponse is an order line
type ItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int64     `json:"quantity"`
	Amount    int64     `json:"amount"`
}

// OrderResponse is the order representation returned by the API
type OrderResponse struct {
	ID             uuid.UUID      `json:"id"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	Email          string         `json:"email"`
	Status         string         `json:"status"`
	Items          []ItemResponse `json:"items"`
	Currency       string         `json:"currency"`
	Subtotal       int64          `json:"subtotal"`
	Discount       int64          `json:"discount"`
	PointsUsed     int64          `json:"points_used"`
	PointsEarned   *int64         `json:"points_earned,omitempty"`
	Total          int64          `json:"total"`
	TotalFormatted string         `json:"total_formatted"`
	CreatedAt      time.Time      `json:"created_at"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time     `json:"refunded_at,omitempty"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Amount:    item.Amount(),
		})
	}
	return OrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Email:          o.Email,
		Status:         o.Status.String(),
		Items:          items,
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		PointsUsed:     o.PointsUsed,
		PointsEarned:   o.PointsEarned,
		Total:          o.Total,
		TotalFormatted: valueobject.NewMoney(o.Total, o.Currency).Format(language.AmericanEnglish),
		CreatedAt:      o.CreatedAt,
		PaidAt:         o.PaidAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		RefundedAt:     o.RefundedAt,
	}
}

// ToOrderResponses converts a page of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	return responses
}
