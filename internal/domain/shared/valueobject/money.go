package valueobject

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is the storefront's settlement currency (ISO 4217, lower-case as the gateway expects)
const DefaultCurrency = "usd"

// ErrCurrencyMismatch is returned when combining amounts in different currencies
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an immutable monetary amount held in integer minor units (cents).
// All arithmetic stays in integers; conversion to major units happens only for display.
type Money struct {
	minor    int64
	currency string
}

// NewMoney creates Money from an amount in minor units
func NewMoney(minor int64, currencyCode string) Money {
	if currencyCode == "" {
		currencyCode = DefaultCurrency
	}
	return Money{minor: minor, currency: strings.ToLower(currencyCode)}
}

// Zero returns a zero amount in the given currency
func Zero(currencyCode string) Money {
	return NewMoney(0, currencyCode)
}

// Minor returns the amount in minor units
func (m Money) Minor() int64 {
	return m.minor
}

// Currency returns the lower-case ISO currency code
func (m Money) Currency() string {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsNegative returns true if the amount is below zero
func (m Money) IsNegative() bool {
	return m.minor < 0
}

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{minor: m.minor + other.minor, currency: m.currency}, nil
}

// Subtract returns m - other
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{minor: m.minor - other.minor, currency: m.currency}, nil
}

// MultiplyByInt returns m * factor
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{minor: m.minor * factor, currency: m.currency}
}

// Major returns the amount in major units (e.g. dollars) using the currency's standard scale
func (m Money) Major() decimal.Decimal {
	return decimal.New(m.minor, -int32(m.scale()))
}

// Format renders the amount for display in the given language, e.g. "$ 12.50"
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(strings.ToUpper(m.currency))
	if err != nil {
		return m.Major().StringFixed(int32(m.scale())) + " " + strings.ToUpper(m.currency)
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(m.Major().InexactFloat64())))
}

// String renders the amount in English
func (m Money) String() string {
	return m.Format(language.English)
}

func (m Money) scale() int {
	unit, err := currency.ParseISO(strings.ToUpper(m.currency))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}
