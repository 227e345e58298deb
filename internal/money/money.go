package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when a monetary input cannot be represented safely.
	ErrInvalidAmount = errors.New("money: invalid amount")
	// ErrCurrencyMismatch is returned when arithmetic mixes two currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Currency is an ISO 4217 style currency code.
type Currency string

const (
	// USD is the currency purchase orders are denominated in.
	USD Currency = "USD"
	// DOP is the default home (reporting) currency.
	DOP Currency = "DOP"
)

// minorUnitExp is the number of decimal places for every supported currency.
const minorUnitExp = 2

// Amount is a monetary value stored as an integer count of minor units (cents)
// tagged with its currency. Using integers keeps arithmetic exact; rounding
// happens exactly once, at the point a fractional result becomes an Amount.
type Amount struct {
	Units    int64    `json:"units"`
	Currency Currency `json:"currency"`
}

// Zero returns the zero amount in the given currency.
func Zero(c Currency) Amount {
	return Amount{Currency: c}
}

// FromUnits builds an Amount directly from minor units.
func FromUnits(units int64, c Currency) Amount {
	return Amount{Units: units, Currency: c}
}

// FromDecimal converts a decimal value into an Amount, rounding half up to the
// currency's minor unit. Negative values are rejected: every monetary input in
// this system (payments, fees, expenses, prices) is non-negative.
func FromDecimal(d decimal.Decimal, c Currency) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d)
	}
	rounded := roundHalfUp(d)
	units := rounded.Shift(minorUnitExp)
	if !units.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s not representable in minor units", ErrInvalidAmount, d)
	}
	return Amount{Units: units.IntPart(), Currency: c}, nil
}

// Parse converts a decimal string such as "123.45" into an Amount.
func Parse(value string, c Currency) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return FromDecimal(d, c)
}

// Decimal returns the amount as a decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Units, -minorUnitExp)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.Units == 0
}

// String renders the amount as "123.45 USD".
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Decimal().StringFixed(minorUnitExp), a.Currency)
}

// Add sums two amounts of the same currency.
func (a Amount) Add(other Amount) (Amount, error) {
	if a.Currency != other.Currency {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, a.Currency, other.Currency)
	}
	return Amount{Units: a.Units + other.Units, Currency: a.Currency}, nil
}

// Sub subtracts other from a. The result may be negative; callers that require
// non-negative results check for themselves.
func (a Amount) Sub(other Amount) (Amount, error) {
	if a.Currency != other.Currency {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, a.Currency, other.Currency)
	}
	return Amount{Units: a.Units - other.Units, Currency: a.Currency}, nil
}

// MulDecimal multiplies the amount by a decimal factor, rounding half up once.
func (a Amount) MulDecimal(factor decimal.Decimal) Amount {
	product := a.Decimal().Mul(factor)
	return Amount{Units: roundHalfUp(product).Shift(minorUnitExp).IntPart(), Currency: a.Currency}
}

// DivInt divides the amount by a positive integer count, rounding half up once.
// Used for unit-cost figures where the divisor is a received quantity.
func (a Amount) DivInt(n int64) (Amount, error) {
	if n <= 0 {
		return Amount{}, fmt.Errorf("%w: division by %d", ErrInvalidAmount, n)
	}
	q := a.Decimal().Div(decimal.NewFromInt(n))
	return Amount{Units: roundHalfUp(q).Shift(minorUnitExp).IntPart(), Currency: a.Currency}, nil
}

// roundHalfUp rounds to the minor unit using round-half-away-from-zero, which
// for the non-negative values handled here is round half up. Never bankers'
// rounding: the allocation conservation property depends on a single
// deterministic rule.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorUnitExp)
}
