package loyalty

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Unbounded marks the open upper end of the top tier
const Unbounded int64 = -1

// Tier is an immutable loyalty level covering the inclusive point range [MinPoints, MaxPoints]
type Tier struct {
	name            string
	minPoints       int64
	maxPoints       int64
	bonusMultiplier decimal.Decimal
}

// NewTier creates a tier. Pass Unbounded as maxPoints for the top tier.
func NewTier(name string, minPoints, maxPoints int64, bonusMultiplier decimal.Decimal) (Tier, error) {
	if name == "" {
		return Tier{}, fmt.Errorf("tier name cannot be empty")
	}
	if minPoints < 0 {
		return Tier{}, fmt.Errorf("tier %s: min points cannot be negative", name)
	}
	if maxPoints != Unbounded && maxPoints < minPoints {
		return Tier{}, fmt.Errorf("tier %s: max points %d is below min points %d", name, maxPoints, minPoints)
	}
	if !bonusMultiplier.IsPositive() {
		return Tier{}, fmt.Errorf("tier %s: bonus multiplier must be positive", name)
	}
	return Tier{
		name:            name,
		minPoints:       minPoints,
		maxPoints:       maxPoints,
		bonusMultiplier: bonusMultiplier,
	}, nil
}

// Name returns the tier name
func (t Tier) Name() string { return t.name }

// MinPoints returns the lowest balance in the tier
func (t Tier) MinPoints() int64 { return t.minPoints }

// MaxPoints returns the highest balance in the tier, or Unbounded
func (t Tier) MaxPoints() int64 { return t.maxPoints }

// BonusMultiplier returns the earning multiplier
func (t Tier) BonusMultiplier() decimal.Decimal { return t.bonusMultiplier }

// IsOpenEnded returns true for the top tier
func (t Tier) IsOpenEnded() bool { return t.maxPoints == Unbounded }

// IsZero returns true for the zero value
func (t Tier) IsZero() bool { return t.name == "" }

// Contains reports whether the balance falls inside the tier's range
func (t Tier) Contains(balance int64) bool {
	if balance < t.minPoints {
		return false
	}
	return t.IsOpenEnded() || balance <= t.maxPoints
}

// Equals compares two tiers by value
func (t Tier) Equals(other Tier) bool {
	return t.name == other.name &&
		t.minPoints == other.minPoints &&
		t.maxPoints == other.maxPoints &&
		t.bonusMultiplier.Equal(other.bonusMultiplier)
}

// MarshalJSON implements json.Marshaler
func (t Tier) MarshalJSON() ([]byte, error) {
	var maxPoints *int64
	if !t.IsOpenEnded() {
		v := t.maxPoints
		maxPoints = &v
	}
	return json.Marshal(struct {
		Name            string          `json:"name"`
		MinPoints       int64           `json:"min_points"`
		MaxPoints       *int64          `json:"max_points"`
		BonusMultiplier decimal.Decimal `json:"bonus_multiplier"`
	}{
		Name:            t.name,
		MinPoints:       t.minPoints,
		MaxPoints:       maxPoints,
		BonusMultiplier: t.bonusMultiplier,
	})
}

// TierTable is the ordered, immutable set of tiers.
// The ranges partition [0, +inf): the first tier starts at 0, each tier starts
// one point above the previous tier's maximum, and only the last tier is open-ended.
type TierTable struct {
	tiers []Tier
}

// NewTierTable validates and builds a tier table. Tiers may be supplied in any order.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("tier table must contain at least one tier")
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].minPoints < sorted[j].minPoints
	})

	if sorted[0].minPoints != 0 {
		return nil, fmt.Errorf("lowest tier %s must start at 0 points", sorted[0].name)
	}

	seen := make(map[string]struct{}, len(sorted))
	for i, t := range sorted {
		if _, dup := seen[t.name]; dup {
			return nil, fmt.Errorf("duplicate tier name %s", t.name)
		}
		seen[t.name] = struct{}{}

		last := i == len(sorted)-1
		if last {
			if !t.IsOpenEnded() {
				return nil, fmt.Errorf("top tier %s must be open-ended", t.name)
			}
			continue
		}
		if t.IsOpenEnded() {
			return nil, fmt.Errorf("only the top tier may be open-ended, got %s", t.name)
		}
		next := sorted[i+1]
		if next.minPoints != t.maxPoints+1 {
			return nil, fmt.Errorf("tiers %s and %s are not contiguous: %d is followed by %d",
				t.name, next.name, t.maxPoints, next.minPoints)
		}
	}

	return &TierTable{tiers: sorted}, nil
}

// DefaultTierTable returns the MOON / ECLIPSE / NOVA table
func DefaultTierTable() *TierTable {
	table, err := NewTierTable(DefaultTiers())
	if err != nil {
		panic(err)
	}
	return table
}

// DefaultTiers returns the default tier definitions
func DefaultTiers() []Tier {
	return []Tier{
		{name: "MOON", minPoints: 0, maxPoints: 499, bonusMultiplier: decimal.NewFromInt(1)},
		{name: "ECLIPSE", minPoints: 500, maxPoints: 1499, bonusMultiplier: decimal.RequireFromString("1.1")},
		{name: "NOVA", minPoints: 1500, maxPoints: Unbounded, bonusMultiplier: decimal.RequireFromString("1.25")},
	}
}

// TierFor returns the tier whose range contains balance.
// Balances outside every range (only possible when negative) fall back to the lowest tier.
func (tt *TierTable) TierFor(balance int64) Tier {
	for _, t := range tt.tiers {
		if t.Contains(balance) {
			return t
		}
	}
	return tt.Lowest()
}

// Lowest returns the entry tier
func (tt *TierTable) Lowest() Tier {
	return tt.tiers[0]
}

// ByName looks up a tier by name
func (tt *TierTable) ByName(name string) (Tier, bool) {
	for _, t := range tt.tiers {
		if t.name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// Next returns the tier above the given one, if any
func (tt *TierTable) Next(current Tier) (Tier, bool) {
	for i, t := range tt.tiers {
		if t.name == current.name && i+1 < len(tt.tiers) {
			return tt.tiers[i+1], true
		}
	}
	return Tier{}, false
}

// Tiers returns a copy of the tiers in ascending order
func (tt *TierTable) Tiers() []Tier {
	out := make([]Tier, len(tt.tiers))
	copy(out, tt.tiers)
	return out
}
