package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/accounts"
)

// LedgerLine is one posted journal line as seen from an account.
type LedgerLine struct {
	Date          time.Time       `json:"date"`
	JournalID     int64           `json:"journal_id"`
	JournalNumber string          `json:"journal_number"`
	Description   string          `json:"description,omitempty"`
	Memo          string          `json:"memo,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Running       decimal.Decimal `json:"running"`
}

// GeneralLedger is one account's chronological movement with a running
// balance respecting its natural side.
type GeneralLedger struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Side      accounts.BalanceSide `json:"balance_side"`
	Lines     []LedgerLine         `json:"lines"`
	Closing   decimal.Decimal      `json:"closing"`
}

// BuildGeneralLedger threads the running balance through the lines. A
// debit-side account grows with debits; a credit-side account mirrors it.
func BuildGeneralLedger(account AccountBalance, lines []LedgerLine) GeneralLedger {
	running := decimal.Zero.Round(2)
	out := GeneralLedger{
		AccountID: account.AccountID,
		Code:      account.Code,
		Name:      account.Name,
		Side:      account.Side,
		Lines:     make([]LedgerLine, 0, len(lines)),
	}
	for _, line := range lines {
		delta := line.Debit.Sub(line.Credit)
		if account.Side == accounts.BalanceSideCredit {
			delta = line.Credit.Sub(line.Debit)
		}
		running = running.Add(delta)
		line.Running = running
		out.Lines = append(out.Lines, line)
	}
	out.Closing = running
	return out
}
