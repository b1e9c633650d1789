package loyalty

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PointsConfig holds the tunable program constants. It is built once at startup
// and passed by value into the calculators.
type PointsConfig struct {
	// EarnRate is points awarded per unit of currency spent
	EarnRate decimal.Decimal
	// PointsPerUnitDiscount is how many points buy one unit of discount
	PointsPerUnitDiscount int64
	// UnitValue is the size of one currency unit in minor units (100 cents)
	UnitValue int64
	// MaxDiscountPercent caps the discount as a percentage of the cart subtotal
	MaxDiscountPercent int64
	// MinOrderForRedemption is the smallest subtotal (minor units) that may use points
	MinOrderForRedemption int64
	// SignupBonus is credited when an account is registered; 0 disables it
	SignupBonus int64
	// NewsletterBonus is credited on a member's first newsletter subscription; 0 disables it
	NewsletterBonus int64
}

// DefaultPointsConfig returns the standard program settings
func DefaultPointsConfig() PointsConfig {
	return PointsConfig{
		EarnRate:              decimal.NewFromInt(1),
		PointsPerUnitDiscount: 20,
		UnitValue:             100,
		MaxDiscountPercent:    20,
		MinOrderForRedemption: 1000,
		SignupBonus:           100,
		NewsletterBonus:       50,
	}
}

// Validate checks the configuration for values that would break the calculators
func (c PointsConfig) Validate() error {
	if c.EarnRate.IsNegative() {
		return fmt.Errorf("earn rate cannot be negative")
	}
	if c.PointsPerUnitDiscount <= 0 {
		return fmt.Errorf("points per unit discount must be positive")
	}
	if c.UnitValue <= 0 {
		return fmt.Errorf("unit value must be positive")
	}
	if c.MaxDiscountPercent < 0 || c.MaxDiscountPercent > 100 {
		return fmt.Errorf("max discount percent must be between 0 and 100")
	}
	if c.MinOrderForRedemption < 0 {
		return fmt.Errorf("min order for redemption cannot be negative")
	}
	if c.SignupBonus < 0 || c.NewsletterBonus < 0 {
		return fmt.Errorf("bonuses cannot be negative")
	}
	return nil
}
