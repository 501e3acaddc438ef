package depreciation

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/shared"
)

// ErrUnknownMethod indicates an unrecognised depreciation method value.
var ErrUnknownMethod = errors.New("depreciation: unknown depreciation method")

var (
	two    = decimal.NewFromInt(2)
	twelve = decimal.NewFromInt(12)
)

// MonthlyAmount computes one month of depreciation for an asset, rounded to
// two decimals half-up. The amount is clamped so accumulated depreciation
// never exceeds the depreciable base (purchase minus salvage).
//
// Declining balance and double declining balance share the 2/life rate so
// imported registers keep the schedules they were built with; a 1/life
// single-declining variant would need its own method value.
func MonthlyAmount(a assets.Asset) (decimal.Decimal, error) {
	life := decimal.NewFromInt(int64(a.UsefulLifeYears))
	if !life.IsPositive() {
		return decimal.Zero, ErrUnknownMethod
	}
	var amount decimal.Decimal
	switch a.Method {
	case assets.MethodStraightLine:
		amount = a.PurchaseValue.Sub(a.SalvageValue).Div(life).Div(twelve)
	case assets.MethodDecliningBalance, assets.MethodDoubleDecliningBalance:
		rate := two.Div(life)
		amount = a.PurchaseValue.Sub(a.AccumulatedDepreciation).Mul(rate).Div(twelve)
	default:
		return decimal.Zero, ErrUnknownMethod
	}
	amount = shared.Round2(amount)
	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	remaining := a.PurchaseValue.Sub(a.SalvageValue).Sub(a.AccumulatedDepreciation)
	if amount.GreaterThan(remaining) {
		amount = shared.Round2(remaining)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount, nil
}
