package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusDraft     JournalStatus = "DRAFT"
	JournalStatusSubmitted JournalStatus = "SUBMITTED"
	JournalStatusPosted    JournalStatus = "POSTED"
	JournalStatusCancelled JournalStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s JournalStatus) Terminal() bool {
	return s == JournalStatusPosted || s == JournalStatusCancelled
}

// JournalEntry is one balanced financial transaction.
type JournalEntry struct {
	ID           int64
	TenantID     int64
	Number       string
	Date         time.Time
	Status       JournalStatus
	Description  string
	SourceModule string
	SourceID     uuid.UUID
	PostedBy     int64
	PostedAt     *time.Time
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Exactly one
// side is non-zero.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Totals sums debit and credit across lines.
func Totals(lines []JournalLine) (debit, credit decimal.Decimal) {
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}
