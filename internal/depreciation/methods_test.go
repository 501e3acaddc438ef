package depreciation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/assets"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyAmount(t *testing.T) {
	cases := []struct {
		name  string
		asset assets.Asset
		want  string
	}{
		{
			name: "straight line 12000 over 5 years",
			asset: assets.Asset{
				Method:          assets.MethodStraightLine,
				PurchaseValue:   dec("12000.00"),
				SalvageValue:    dec("0.00"),
				UsefulLifeYears: 5,
			},
			want: "200.00",
		},
		{
			name: "straight line with salvage",
			asset: assets.Asset{
				Method:          assets.MethodStraightLine,
				PurchaseValue:   dec("10000.00"),
				SalvageValue:    dec("1000.00"),
				UsefulLifeYears: 3,
			},
			want: "250.00",
		},
		{
			name: "declining balance first month",
			asset: assets.Asset{
				Method:          assets.MethodDecliningBalance,
				PurchaseValue:   dec("12000.00"),
				SalvageValue:    dec("0.00"),
				UsefulLifeYears: 5,
			},
			want: "400.00",
		},
		{
			name: "declining balance shrinks with accumulated",
			asset: assets.Asset{
				Method:                  assets.MethodDecliningBalance,
				PurchaseValue:           dec("12000.00"),
				SalvageValue:            dec("0.00"),
				UsefulLifeYears:         5,
				AccumulatedDepreciation: dec("6000.00"),
			},
			want: "200.00",
		},
		{
			name: "double declining takes the same path",
			asset: assets.Asset{
				Method:          assets.MethodDoubleDecliningBalance,
				PurchaseValue:   dec("12000.00"),
				SalvageValue:    dec("0.00"),
				UsefulLifeYears: 5,
			},
			want: "400.00",
		},
		{
			name: "clamped to remaining depreciable base",
			asset: assets.Asset{
				Method:                  assets.MethodStraightLine,
				PurchaseValue:           dec("12000.00"),
				SalvageValue:            dec("2000.00"),
				UsefulLifeYears:         5,
				AccumulatedDepreciation: dec("9950.00"),
			},
			want: "50.00",
		},
		{
			name: "fully depreciated yields zero",
			asset: assets.Asset{
				Method:                  assets.MethodStraightLine,
				PurchaseValue:           dec("12000.00"),
				SalvageValue:            dec("2000.00"),
				UsefulLifeYears:         5,
				AccumulatedDepreciation: dec("10000.00"),
			},
			want: "0.00",
		},
		{
			name: "rounds half up",
			asset: assets.Asset{
				Method:          assets.MethodStraightLine,
				PurchaseValue:   dec("1000.00"),
				SalvageValue:    dec("0.00"),
				UsefulLifeYears: 7,
			},
			// 1000 / 7 / 12 = 11.904...
			want: "11.90",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MonthlyAmount(tc.asset)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestMonthlyAmountUnknownMethod(t *testing.T) {
	_, err := MonthlyAmount(assets.Asset{
		Method:          "SUM_OF_YEARS",
		PurchaseValue:   dec("1000.00"),
		UsefulLifeYears: 5,
	})
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMonthlyAmountDeterministic(t *testing.T) {
	asset := assets.Asset{
		Method:          assets.MethodDecliningBalance,
		PurchaseValue:   dec("9000.00"),
		SalvageValue:    dec("500.00"),
		UsefulLifeYears: 4,
	}
	first, err := MonthlyAmount(asset)
	require.NoError(t, err)
	second, err := MonthlyAmount(asset)
	require.NoError(t, err)
	require.True(t, first.Equal(second))
}
