package loyalty

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	EventTypeTierChanged    = "TierChanged"
	EventTypePointsAdjusted = "PointsAdjusted"

	AggregateTypeAccount = "Account"
)

// TierChangedEvent is raised when a settlement or adjustment moves a member between tiers
type TierChangedEvent struct {
	shared.BaseDomainEvent
	UserID       uuid.UUID `json:"user_id"`
	PreviousTier string    `json:"previous_tier"`
	NewTier      string    `json:"new_tier"`
	Balance      int64     `json:"balance"`
}

// NewTierChangedEvent creates a TierChangedEvent
func NewTierChangedEvent(userID uuid.UUID, previous, next string, balance int64) *TierChangedEvent {
	return &TierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTierChanged, AggregateTypeAccount, userID),
		UserID:          userID,
		PreviousTier:    previous,
		NewTier:         next,
		Balance:         balance,
	}
}

// PointsAdjustedEvent is raised for manual corrections made by an administrator
type PointsAdjustedEvent struct {
	shared.BaseDomainEvent
	UserID  uuid.UUID `json:"user_id"`
	AdminID uuid.UUID `json:"admin_id"`
	Amount  int64     `json:"amount"`
	Reason  string    `json:"reason"`
	Balance int64     `json:"balance"`
}

// NewPointsAdjustedEvent creates a PointsAdjustedEvent
func NewPointsAdjustedEvent(userID, adminID uuid.UUID, amount int64, reason string, balance int64) *PointsAdjustedEvent {
	return &PointsAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePointsAdjusted, AggregateTypeAccount, userID),
		UserID:          userID,
		AdminID:         adminID,
		Amount:          amount,
		Reason:          reason,
		Balance:         balance,
	}
}
