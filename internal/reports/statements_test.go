package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/accounts"
)

func TestBuildBalanceSheet(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	sheet := BuildBalanceSheet(asOf, sampleBalances())

	require.Equal(t, "2000.00", sheet.Assets.Total.StringFixed(2))
	require.Equal(t, "500.00", sheet.Liabilities.Total.StringFixed(2))
	require.True(t, sheet.Equity.Total.IsZero())
	require.Equal(t, "500.00", sheet.TotalLiabilitiesAndEquity.StringFixed(2))
	require.Equal(t, "1100", sheet.Assets.Rows[0].Code)
}

func TestBuildIncomeStatement(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	balances := append(sampleBalances(), AccountBalance{
		AccountID: 5, Code: "5100", Name: "Rent",
		Type: accounts.AccountTypeExpense, Side: accounts.BalanceSideDebit,
		Debit: dec("400.00"), Credit: dec("0.00"),
	})
	stmt := BuildIncomeStatement(from, to, balances)

	require.Equal(t, "1500.00", stmt.Revenue.Total.StringFixed(2))
	require.Equal(t, "400.00", stmt.Expenses.Total.StringFixed(2))
	require.Equal(t, "1100.00", stmt.NetIncome.StringFixed(2))
}
