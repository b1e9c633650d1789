package loyalty

// Redemption is the outcome of a discount calculation. All amounts are minor units.
type Redemption struct {
	PointsToUse       int64 `json:"points_to_use"`
	DiscountAmount    int64 `json:"discount_amount"`
	MaxPointsUsable   int64 `json:"max_points_usable"`
	MaxDiscountAmount int64 `json:"max_discount_amount"`
	MinOrderMet       bool  `json:"min_order_met"`
}

// ComputeRedemption works out how many points can be spent on a cart and what
// they are worth. requestedPoints nil means "as many as allowed"; an explicit
// value is capped at the allowed maximum. The function is pure.
//
// maxPointsUsable is back-derived from the capped discount with integer floor
// division, so it can be up to PointsPerUnitDiscount-1 below the balance-based
// cap. The discount granted is identical either way.
func ComputeRedemption(cfg PointsConfig, cartSubtotal, pointsBalance int64, requestedPoints *int64) Redemption {
	cartSubtotal = max(cartSubtotal, 0)
	if cartSubtotal < cfg.MinOrderForRedemption {
		return Redemption{MinOrderMet: false}
	}
	if pointsBalance < 0 {
		pointsBalance = 0
	}

	maxByPercent := cartSubtotal * cfg.MaxDiscountPercent / 100
	maxByBalance := (pointsBalance / cfg.PointsPerUnitDiscount) * cfg.UnitValue
	maxDiscount := min(maxByPercent, maxByBalance)
	maxPointsUsable := maxDiscount * cfg.PointsPerUnitDiscount / cfg.UnitValue

	pointsToUse := maxPointsUsable
	if requestedPoints != nil {
		pointsToUse = max(min(*requestedPoints, maxPointsUsable), 0)
	}

	discount := (pointsToUse / cfg.PointsPerUnitDiscount) * cfg.UnitValue
	if discount > cartSubtotal {
		discount = cartSubtotal
	}

	return Redemption{
		PointsToUse:       pointsToUse,
		DiscountAmount:    discount,
		MaxPointsUsable:   maxPointsUsable,
		MaxDiscountAmount: maxDiscount,
		MinOrderMet:       true,
	}
}
