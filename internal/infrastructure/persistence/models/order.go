package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate.
// Line items are stored as a JSON document on the row.
type OrderModel struct {
	AggregateModel
	UserID          *uuid.UUID   `gorm:"type:uuid;index"`
	Email           string       `gorm:"type:varchar(200);not null"`
	Status          order.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	Items           []order.Item `gorm:"type:jsonb;serializer:json;not null"`
	Currency        string       `gorm:"type:varchar(3);not null"`
	Subtotal        int64        `gorm:"not null"`
	Discount        int64        `gorm:"not null;default:0"`
	PointsUsed      int64        `gorm:"not null;default:0"`
	PointsEarned    *int64
	Total           int64   `gorm:"not null"`
	CheckoutSession *string `gorm:"type:varchar(255);uniqueIndex"`
	PaymentIntent   string  `gorm:"type:varchar(255)"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Email:             m.Email,
		Status:            m.Status,
		Items:             m.Items,
		Currency:          m.Currency,
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		PointsUsed:        m.PointsUsed,
		PointsEarned:      m.PointsEarned,
		Total:             m.Total,
		PaymentIntent:     m.PaymentIntent,
		PaidAt:            m.PaidAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		RefundedAt:        m.RefundedAt,
	}
	if m.CheckoutSession != nil {
		o.CheckoutSession = *m.CheckoutSession
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.UserID = o.UserID
	m.Email = o.Email
	m.Status = o.Status
	m.Items = o.Items
	m.Currency = o.Currency
	m.Subtotal = o.Subtotal
	m.Discount = o.Discount
	m.PointsUsed = o.PointsUsed
	m.PointsEarned = o.PointsEarned
	m.Total = o.Total
	m.CheckoutSession = nil
	if o.CheckoutSession != "" {
		session := o.CheckoutSession
		m.CheckoutSession = &session
	}
	m.PaymentIntent = o.PaymentIntent
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.RefundedAt = o.RefundedAt
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
