package loyalty

import "github.com/shopspring/decimal"

// PointsEarned returns the points awarded for an order total (minor units) at the given tier.
// Base points are floored before the tier multiplier is applied, then floored again.
func PointsEarned(cfg PointsConfig, orderTotal int64, tier Tier) int64 {
	if orderTotal <= 0 || cfg.UnitValue <= 0 {
		return 0
	}
	base := decimal.NewFromInt(orderTotal).
		Div(decimal.NewFromInt(cfg.UnitValue)).
		Mul(cfg.EarnRate).
		Floor()
	multiplier := tier.BonusMultiplier()
	if tier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	return base.Mul(multiplier).Floor().IntPart()
}
