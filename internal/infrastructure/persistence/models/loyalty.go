package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
)

// PointsTransactionModel is one append-only ledger row. The partial unique index
// allows a single EARN and a single SPEND per order, which makes settlement
// idempotent at the storage level.
type PointsTransactionModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_points_transactions_user_created,priority:1"`
	Amount       int64               `gorm:"not null"`
	Kind         loyalty.EntryKind   `gorm:"type:varchar(10);not null;uniqueIndex:uq_points_transactions_order_settlement,priority:2,where:source = 'ORDER'"`
	Source       loyalty.EntrySource `gorm:"type:varchar(20);not null;uniqueIndex:uq_points_transactions_order_settlement,priority:3,where:source = 'ORDER'"`
	ReferenceID  *string             `gorm:"type:varchar(100);index;uniqueIndex:uq_points_transactions_order_settlement,priority:1,where:source = 'ORDER'"`
	Description  string              `gorm:"type:varchar(255)"`
	BalanceAfter int64               `gorm:"not null"`
	CreatedAt    time.Time           `gorm:"not null;index:idx_points_transactions_user_created,priority:2"`
}

// TableName returns the table name for GORM
func (PointsTransactionModel) TableName() string {
	return "points_transactions"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *PointsTransactionModel) ToDomain() loyalty.LedgerEntry {
	return loyalty.LedgerEntry{
		ID:           m.ID,
		UserID:       m.UserID,
		Amount:       m.Amount,
		Kind:         m.Kind,
		Source:       m.Source,
		ReferenceID:  m.ReferenceID,
		Description:  m.Description,
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}
}

// PointsTransactionModelFromDomain creates a persistence model from a domain LedgerEntry
func PointsTransactionModelFromDomain(e *loyalty.LedgerEntry) *PointsTransactionModel {
	return &PointsTransactionModel{
		ID:           e.ID,
		UserID:       e.UserID,
		Amount:       e.Amount,
		Kind:         e.Kind,
		Source:       e.Source,
		ReferenceID:  e.ReferenceID,
		Description:  e.Description,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
}
