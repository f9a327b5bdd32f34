// Package valueobject holds the monetary primitives shared by every ledger
// component. The system is single-currency, so amounts are plain decimals
// rounded to two places rather than currency-tagged values.
package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Tolerance is the largest difference treated as a reconciliation match (one paisa)
	Tolerance = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// ErrInvalidAmount is returned when a textual amount cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

// Round2 rounds half-up to two decimal places: floor(x*100 + 0.5) / 100.
// Negative halves therefore round toward positive infinity (-0.005 -> 0.00).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// Round2Float converts a float to a two-place decimal.
// NaN and infinities yield zero instead of an error.
func Round2Float(x float64) decimal.Decimal {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return decimal.Zero
	}
	return Round2(decimal.NewFromFloat(x))
}

// ParseAmount parses a user-supplied amount and rounds it to two places
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Round2(d), nil
}

// Percent returns Round2(base * rate / 100)
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(rate).Div(hundred))
}

// Sum adds the values and rounds the result
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round2(total)
}

// WithinTolerance reports whether |a - b| <= Tolerance
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// IsPositive reports whether the rounded amount is strictly greater than zero
func IsPositive(d decimal.Decimal) bool {
	return Round2(d).IsPositive()
}

// Format renders an amount with exactly two decimals for messages
func Format(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}
