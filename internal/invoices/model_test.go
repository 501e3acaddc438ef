package invoices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecomputeRoundsLineAmounts(t *testing.T) {
	inv := Invoice{
		Lines: []InvoiceLine{
			{Quantity: dec("3"), UnitPrice: dec("0.333")},
			{Quantity: dec("2"), UnitPrice: dec("10.005")},
		},
		TaxLines: []TaxLine{
			{TaxCode: "VAT15", TaxAmount: dec("3.15")},
		},
		PaidAmount: dec("5.00"),
	}
	inv.Recompute()

	require.Equal(t, "1.00", inv.Lines[0].Amount.StringFixed(2))
	require.Equal(t, "20.01", inv.Lines[1].Amount.StringFixed(2))
	require.Equal(t, "21.01", inv.Subtotal.StringFixed(2))
	require.Equal(t, "3.15", inv.TaxTotal.StringFixed(2))
	require.Equal(t, "24.16", inv.Total.StringFixed(2))
	require.Equal(t, "19.16", inv.Balance.StringFixed(2))
}
