package invoice

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tolerance returns the accepted gap between pre-tax + tax and total for a
// given total. Call sites pick their own policy.
type Tolerance func(total float64) float64

// RelativeTolerance accepts ratio * |total|, but never less than floor.
func RelativeTolerance(floor, ratio float64) Tolerance {
	return func(total float64) float64 {
		return math.Max(floor, math.Abs(total)*ratio)
	}
}

// FlatTolerance accepts the same absolute gap whatever the total.
func FlatTolerance(gap float64) Tolerance {
	return func(float64) float64 {
		return gap
	}
}

// InteractiveTolerance is the policy of the validation path: 0.5% of the
// total with a 2-cent floor.
func InteractiveTolerance() Tolerance {
	return RelativeTolerance(0.02, 0.005)
}

// ExportTolerance is the policy of the export path and the export gate: a
// flat 5 cents.
func ExportTolerance() Tolerance {
	return FlatTolerance(0.05)
}

// IsCoherent reports whether |(preTax + tax) - total| <= tolerance.
// The difference is computed in decimal so that a gap sitting exactly on the
// tolerance is not lost to binary rounding.
func IsCoherent(preTax, tax, total, tolerance float64) bool {
	return Delta(preTax, tax, total).LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// Delta returns |(preTax + tax) - total|.
func Delta(preTax, tax, total float64) decimal.Decimal {
	return decimal.NewFromFloat(preTax).
		Add(decimal.NewFromFloat(tax)).
		Sub(decimal.NewFromFloat(total)).
		Abs()
}
