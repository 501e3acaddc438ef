package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/shared"
)

var (
	// ErrUnbalanced indicates debit != credit beyond tolerance.
	ErrUnbalanced = errors.New("journals: lines must balance")
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = errors.New("journals: journal requires at least two lines")
	// ErrUnknownAccount indicates a line references a missing or inactive account.
	ErrUnknownAccount = errors.New("journals: line references unknown or inactive account")
	// ErrAlreadyPosted indicates the journal is posted and immutable.
	ErrAlreadyPosted = errors.New("journals: journal already posted")
	// ErrInvalidStatus indicates the transition is not allowed from the current status.
	ErrInvalidStatus = errors.New("journals: invalid status transition")
	// ErrClosedPeriod indicates the journal date falls in a closed fiscal period.
	ErrClosedPeriod = errors.New("journals: fiscal period is closed")
	// ErrSourceAlreadyLinked indicates the source document already produced a journal.
	ErrSourceAlreadyLinked = errors.New("journals: source already linked")
)

// LineInput describes one journal line in a posting request.
type LineInput struct {
	AccountID int64           `json:"account_id" validate:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo" validate:"max=255"`
}

// CreateInput groups fields required to create a journal draft.
type CreateInput struct {
	Date         time.Time
	Description  string
	SourceModule string
	SourceID     uuid.UUID
	Lines        []LineInput
}

// Validate enforces the double-entry invariants on the input set.
func (in CreateInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("journals: date required")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit decimal.Decimal
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journals: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("journals: line %d negative amount", idx)
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return fmt.Errorf("journals: line %d must have exactly one of debit or credit", idx)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !shared.WithinTolerance(debit, credit) {
		return ErrUnbalanced
	}
	return nil
}

// CancelInput wraps parameters for cancellation.
type CancelInput struct {
	EntryID int64
	Reason  string
}

// ReverseInput wraps parameters for a reversing journal.
type ReverseInput struct {
	EntryID int64
	Memo    string
}

// CreateRequest is the HTTP shape for creating a draft.
type CreateRequest struct {
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description" validate:"max=512"`
	Lines       []LineInput `json:"lines" validate:"required,min=2,dive"`
}

// CancelRequest is the HTTP shape for cancelling.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

// LineResponse is the JSON shape of a journal line.
type LineResponse struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Memo      string `json:"memo,omitempty"`
}

// EntryResponse is the JSON shape of a journal entry.
type EntryResponse struct {
	ID          int64          `json:"id"`
	Number      string         `json:"number"`
	Date        string         `json:"date"`
	Status      string         `json:"status"`
	Description string         `json:"description,omitempty"`
	Lines       []LineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e JournalEntry) EntryResponse {
	out := EntryResponse{
		ID:          e.ID,
		Number:      e.Number,
		Date:        e.Date.Format("2006-01-02"),
		Status:      string(e.Status),
		Description: e.Description,
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, LineResponse{
			ID:        line.ID,
			AccountID: line.AccountID,
			Debit:     line.Debit.StringFixed(2),
			Credit:    line.Credit.StringFixed(2),
			Memo:      line.Memo,
		})
	}
	return out
}
