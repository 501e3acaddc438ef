package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/accounts"
)

func ledgerLines() []LedgerLine {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return []LedgerLine{
		{Date: day, JournalID: 1, JournalNumber: "JRNL00001", Debit: dec("500.00"), Credit: dec("0.00")},
		{Date: day.AddDate(0, 0, 3), JournalID: 2, JournalNumber: "JRNL00002", Debit: dec("0.00"), Credit: dec("120.00")},
		{Date: day.AddDate(0, 0, 9), JournalID: 3, JournalNumber: "JRNL00003", Debit: dec("50.00"), Credit: dec("0.00")},
	}
}

func TestBuildGeneralLedgerDebitSide(t *testing.T) {
	account := AccountBalance{AccountID: 1, Code: "1100", Name: "Cash", Side: accounts.BalanceSideDebit}

	ledger := BuildGeneralLedger(account, ledgerLines())

	require.Len(t, ledger.Lines, 3)
	require.Equal(t, "500.00", ledger.Lines[0].Running.StringFixed(2))
	require.Equal(t, "380.00", ledger.Lines[1].Running.StringFixed(2))
	require.Equal(t, "430.00", ledger.Lines[2].Running.StringFixed(2))
	require.Equal(t, "430.00", ledger.Closing.StringFixed(2))
}

func TestBuildGeneralLedgerCreditSideMirrors(t *testing.T) {
	account := AccountBalance{AccountID: 3, Code: "2100", Name: "Payables", Side: accounts.BalanceSideCredit}

	ledger := BuildGeneralLedger(account, ledgerLines())

	require.Equal(t, "-500.00", ledger.Lines[0].Running.StringFixed(2))
	require.Equal(t, "-380.00", ledger.Lines[1].Running.StringFixed(2))
	require.Equal(t, "-430.00", ledger.Closing.StringFixed(2))
}

func TestBuildGeneralLedgerEmpty(t *testing.T) {
	account := AccountBalance{AccountID: 1, Code: "1100", Name: "Cash", Side: accounts.BalanceSideDebit}

	ledger := BuildGeneralLedger(account, nil)

	require.Empty(t, ledger.Lines)
	require.True(t, ledger.Closing.IsZero())
}
