package model

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	DefaultMaxDecimals = 3
	MinMaxDecimals     = 0
	MaxMaxDecimals     = 8

	// MinQtyExponent is the finest scale a quantity or cost may arrive with.
	MinQtyExponent = -18
)

var (
	half = decimal.NewFromFloat(0.5)

	// MaxQty bounds quantities stored as NUMERIC(24,8).
	MaxQty = decimal.New(1, 16)
	// MaxCost bounds unit costs stored as NUMERIC(20,6).
	MaxCost = decimal.New(1, 14)
)

// WithinBounds reports whether |q| < limit and q's exponent is no finer than
// MinQtyExponent. The exponent is checked before any arithmetic so that inputs
// like 1e-20000000 never get rescaled.
func WithinBounds(q, limit decimal.Decimal) bool {
	exp := q.Exponent()
	if exp < MinQtyExponent || exp > limit.Exponent() {
		return false
	}
	return q.IsZero() || q.Abs().LessThan(limit)
}

// QtyInRange reports whether q can be stored as a quantity.
func QtyInRange(q decimal.Decimal) bool {
	return WithinBounds(q, MaxQty)
}

// CostInRange reports whether c can be stored as a unit cost.
func CostInRange(c *decimal.Decimal) bool {
	return c == nil || WithinBounds(*c, MaxCost)
}

// RoundQty rounds q half-up (toward positive infinity) to places decimals.
// 1.005 -> 1.01 and -1.005 -> -1.00 at two places.
func RoundQty(q decimal.Decimal, places int32) decimal.Decimal {
	if places < MinMaxDecimals {
		places = MinMaxDecimals
	}
	if places > MaxMaxDecimals {
		places = MaxMaxDecimals
	}
	return q.Shift(places).Add(half).Floor().Shift(-places)
}

// QtyFromFloat converts a wire quantity. ok is false for NaN and ±Inf.
func QtyFromFloat(f float64) (q decimal.Decimal, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// ClampDecimals clamps a requested precision into [0,8].
func ClampDecimals(n int) int {
	if n < MinMaxDecimals {
		return MinMaxDecimals
	}
	if n > MaxMaxDecimals {
		return MaxMaxDecimals
	}
	return n
}
