package payments

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput indicates a malformed payment definition.
	ErrInvalidInput = errors.New("payments: invalid payment input")
	// ErrInvalidStatus indicates the transition is not allowed.
	ErrInvalidStatus = errors.New("payments: invalid status transition")
	// ErrOverAllocation indicates allocations exceed the payment amount or an
	// invoice's outstanding balance.
	ErrOverAllocation = errors.New("payments: allocation exceeds available amount")
	// ErrInvoiceNotOpen indicates the target invoice is not posted and open
	// for settlement.
	ErrInvoiceNotOpen = errors.New("payments: invoice is not open for allocation")
	// ErrNoDefaultAccounts indicates the cash/party control accounts are not
	// configured for auto-posting.
	ErrNoDefaultAccounts = errors.New("payments: default posting accounts not configured")
)

// CreateRequest carries fields for a new payment.
type CreateRequest struct {
	Type      string          `json:"type" validate:"required,oneof=RECEIPT PAYMENT"`
	PartyID   int64           `json:"party_id" validate:"required"`
	Date      string          `json:"date" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required,max=32"`
	Reference string          `json:"reference" validate:"max=128"`
}

// AllocationRequest is one invoice settlement row.
type AllocationRequest struct {
	InvoiceID int64           `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

// AllocateRequest replaces the payment's allocation set.
type AllocateRequest struct {
	Allocations []AllocationRequest `json:"allocations" validate:"required,dive"`
}

// PaymentResponse is the JSON shape of a payment.
type PaymentResponse struct {
	ID          int64                `json:"id"`
	Number      string               `json:"number"`
	Type        string               `json:"type"`
	PartyID     int64                `json:"party_id"`
	Date        string               `json:"date"`
	Amount      string               `json:"amount"`
	Allocated   string               `json:"allocated"`
	Method      string               `json:"method"`
	Reference   string               `json:"reference,omitempty"`
	Status      string               `json:"status"`
	JournalID   *int64               `json:"journal_id,omitempty"`
	Allocations []AllocationResponse `json:"allocations,omitempty"`
}

// AllocationResponse is the JSON shape of one allocation.
type AllocationResponse struct {
	ID        int64  `json:"id"`
	InvoiceID int64  `json:"invoice_id"`
	Amount    string `json:"amount"`
}

func toResponse(p Payment) PaymentResponse {
	out := PaymentResponse{
		ID:        p.ID,
		Number:    p.Number,
		Type:      string(p.Type),
		PartyID:   p.PartyID,
		Date:      p.Date.Format("2006-01-02"),
		Amount:    p.Amount.StringFixed(2),
		Allocated: p.AllocatedTotal().StringFixed(2),
		Method:    p.Method,
		Reference: p.Reference,
		Status:    string(p.Status),
		JournalID: p.JournalID,
	}
	for _, a := range p.Allocations {
		out.Allocations = append(out.Allocations, AllocationResponse{
			ID:        a.ID,
			InvoiceID: a.InvoiceID,
			Amount:    a.Amount.StringFixed(2),
		})
	}
	return out
}
