package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/accounts"
)

// StatementRow is one account with its closing balance.
type StatementRow struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// StatementSection holds the rows and total of one classification.
type StatementSection struct {
	Label string          `json:"label"`
	Rows  []StatementRow  `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// BalanceSheet is the structured balance sheet response.
type BalanceSheet struct {
	AsOf                      time.Time        `json:"as_of"`
	Assets                    StatementSection `json:"assets"`
	Liabilities               StatementSection `json:"liabilities"`
	Equity                    StatementSection `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal  `json:"total_liabilities_and_equity"`
}

// IncomeStatement is the structured profit and loss response.
type IncomeStatement struct {
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Revenue   StatementSection `json:"revenue"`
	Expenses  StatementSection `json:"expenses"`
	NetIncome decimal.Decimal  `json:"net_income"`
}

func buildSection(label string, typ accounts.AccountType, balances []AccountBalance) StatementSection {
	section := StatementSection{Label: label, Total: decimal.Zero.Round(2)}
	for _, bal := range balances {
		if bal.Type != typ {
			continue
		}
		row := StatementRow{AccountID: bal.AccountID, Code: bal.Code, Name: bal.Name, Balance: bal.Closing()}
		section.Rows = append(section.Rows, row)
		section.Total = section.Total.Add(row.Balance)
	}
	sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Code < section.Rows[j].Code })
	return section
}

// BuildBalanceSheet aggregates closing balances into assets, liabilities
// and equity sections.
func BuildBalanceSheet(asOf time.Time, balances []AccountBalance) BalanceSheet {
	sheet := BalanceSheet{
		AsOf:        asOf,
		Assets:      buildSection("Assets", accounts.AccountTypeAsset, balances),
		Liabilities: buildSection("Liabilities", accounts.AccountTypeLiability, balances),
		Equity:      buildSection("Equity", accounts.AccountTypeEquity, balances),
	}
	sheet.TotalLiabilitiesAndEquity = sheet.Liabilities.Total.Add(sheet.Equity.Total)
	return sheet
}

// BuildIncomeStatement aggregates revenue and expense movement over the
// requested window.
func BuildIncomeStatement(from, to time.Time, balances []AccountBalance) IncomeStatement {
	stmt := IncomeStatement{
		From:     from,
		To:       to,
		Revenue:  buildSection("Revenue", accounts.AccountTypeRevenue, balances),
		Expenses: buildSection("Expenses", accounts.AccountTypeExpense, balances),
	}
	stmt.NetIncome = stmt.Revenue.Total.Sub(stmt.Expenses.Total)
	return stmt
}
