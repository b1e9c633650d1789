package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/loyalty"
)

// RedemptionRules describes how points convert into a discount
type RedemptionRules struct {
	PointsPerUnitDiscount int64 `json:"points_per_unit_discount"`
	UnitValue             int64 `json:"unit_value"`
	MaxDiscountPercent    int64 `json:"max_discount_percent"`
	MinOrderForRedemption int64 `json:"min_order_for_redemption"`
}

// SummaryResponse is a member's points position
type SummaryResponse struct {
	Balance         int64           `json:"balance"`
	Reserved        int64           `json:"reserved"`
	Available       int64           `json:"available"`
	Tier            string          `json:"tier"`
	BonusMultiplier decimal.Decimal `json:"bonus_multiplier"`
	NextTier        *string         `json:"next_tier,omitempty"`
	PointsToNext    int64           `json:"points_to_next_tier"`
	Redemption      RedemptionRules `json:"redemption"`
}

// LedgerEntryResponse is one row of the points history
type LedgerEntryResponse struct {
	ID           uuid.UUID `json:"id"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	Source       string    `json:"source"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// PreviewInput asks what a cart could redeem. Points nil means the maximum.
type PreviewInput struct {
	UserID   *uuid.UUID
	Subtotal int64
	Points   *int64
}

// PreviewResponse is a redemption quote. It is not a reservation.
type PreviewResponse struct {
	loyalty.Redemption
	Available         int64  `json:"available"`
	DiscountFormatted string `json:"discount_formatted"`
	TotalAfter        int64  `json:"total_after_discount"`
}

// AdjustInput is a manual correction by an administrator
type AdjustInput struct {
	AdminID uuid.UUID
	UserID  uuid.UUID
	Amount  int64
	Reason  string
}

// AdjustResult reports the member's position after an adjustment
type AdjustResult struct {
	EntryID     uuid.UUID `json:"entry_id"`
	Balance     int64     `json:"balance"`
	Tier        string    `json:"tier"`
	TierChanged bool      `json:"tier_changed"`
}

func toLedgerEntryResponse(e *loyalty.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		Amount:       e.Amount,
		Kind:         e.Kind.String(),
		Source:       e.Source.String(),
		ReferenceID:  e.Reference(),
		Description:  e.Description,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
}
