package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/accounts"
	"github.com/northbooks/northbooks/internal/shared"
)

// AccountBalance models an account with its aggregated posted movement.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Side      accounts.BalanceSide
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Closing computes the signed closing balance respecting the account's
// natural side.
func (a AccountBalance) Closing() decimal.Decimal {
	if a.Side == accounts.BalanceSideCredit {
		return a.Credit.Sub(a.Debit)
	}
	return a.Debit.Sub(a.Credit)
}

// TrialBalanceRow is one account line in the report.
type TrialBalanceRow struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// TrialBalanceGroup aggregates rows of one account type.
type TrialBalanceGroup struct {
	Type   accounts.AccountType `json:"type"`
	Rows   []TrialBalanceRow    `json:"rows"`
	Debit  decimal.Decimal      `json:"debit"`
	Credit decimal.Decimal      `json:"credit"`
}

// TrialBalance is the grouped report with grand totals.
type TrialBalance struct {
	AsOf        time.Time           `json:"as_of"`
	Groups      []TrialBalanceGroup `json:"groups"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	IsBalanced  bool                `json:"is_balanced"`
}

var groupOrder = []accounts.AccountType{
	accounts.AccountTypeAsset,
	accounts.AccountTypeLiability,
	accounts.AccountTypeEquity,
	accounts.AccountTypeRevenue,
	accounts.AccountTypeExpense,
}

// BuildTrialBalance groups balances by account type with subtotals and a
// grand total. An empty input yields a balanced zero report.
func BuildTrialBalance(asOf time.Time, balances []AccountBalance) TrialBalance {
	byType := make(map[accounts.AccountType]*TrialBalanceGroup)
	for _, bal := range balances {
		grp, ok := byType[bal.Type]
		if !ok {
			grp = &TrialBalanceGroup{Type: bal.Type}
			byType[bal.Type] = grp
		}
		row := TrialBalanceRow{
			AccountID: bal.AccountID,
			Code:      bal.Code,
			Name:      bal.Name,
			Debit:     bal.Debit,
			Credit:    bal.Credit,
		}
		grp.Rows = append(grp.Rows, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
	}

	report := TrialBalance{
		AsOf:        asOf,
		TotalDebit:  decimal.Zero.Round(2),
		TotalCredit: decimal.Zero.Round(2),
	}
	for _, typ := range groupOrder {
		grp, ok := byType[typ]
		if !ok {
			continue
		}
		sort.Slice(grp.Rows, func(i, j int) bool { return grp.Rows[i].Code < grp.Rows[j].Code })
		report.Groups = append(report.Groups, *grp)
		report.TotalDebit = report.TotalDebit.Add(grp.Debit)
		report.TotalCredit = report.TotalCredit.Add(grp.Credit)
	}
	report.IsBalanced = shared.WithinTolerance(report.TotalDebit, report.TotalCredit)
	return report
}
