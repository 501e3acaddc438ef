package shared

import "github.com/shopspring/decimal"

// BalanceTolerance is the largest debit/credit difference still treated as
// balanced, expressed in currency units.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// Round2 rounds a monetary amount to two fraction digits, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether two monetary totals agree within
// BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}
