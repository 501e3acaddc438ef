package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	require.Equal(t, "10.01", Round2(decimal.RequireFromString("10.005")).StringFixed(2))
	require.Equal(t, "-10.01", Round2(decimal.RequireFromString("-10.005")).StringFixed(2))
	require.Equal(t, "10.00", Round2(decimal.RequireFromString("10.004")).StringFixed(2))
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	require.True(t, WithinTolerance(a, decimal.RequireFromString("100.01")))
	require.True(t, WithinTolerance(a, decimal.RequireFromString("99.99")))
	require.False(t, WithinTolerance(a, decimal.RequireFromString("100.02")))
}

func TestFormatCode(t *testing.T) {
	require.Equal(t, "JRNL00007", FormatCode(SeqJournal, 7))
	require.Equal(t, "INV12345", FormatCode(SeqInvoice, 12345))
	require.Equal(t, "PAY100000", FormatCode(SeqPayment, 100000))
	require.Equal(t, "DOC00001", FormatCode("unknown", 1))
}
