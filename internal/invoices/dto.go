package invoices

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput indicates a malformed invoice definition.
	ErrInvalidInput = errors.New("invoices: invalid invoice input")
	// ErrNotEditable indicates the invoice left DRAFT and cannot be edited.
	ErrNotEditable = errors.New("invoices: only draft invoices can be edited")
	// ErrInvalidStatus indicates the transition is not allowed.
	ErrInvalidStatus = errors.New("invoices: invalid status transition")
	// ErrAlreadyPosted indicates the invoice is posted; cancel via reversal.
	ErrAlreadyPosted = errors.New("invoices: invoice already posted")
	// ErrNoDefaultAccounts indicates auto-posting accounts are not configured.
	ErrNoDefaultAccounts = errors.New("invoices: default posting accounts not configured")
)

// LineRequest is one invoice row in a create/update request.
type LineRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

// TaxLineRequest is one tax bucket in a create/update request.
type TaxLineRequest struct {
	TaxCode       string          `json:"tax_code" validate:"required,max=32"`
	TaxableAmount decimal.Decimal `json:"taxable_amount" validate:"required"`
	TaxAmount     decimal.Decimal `json:"tax_amount" validate:"required"`
}

// CreateRequest carries fields for a new invoice.
type CreateRequest struct {
	Type     string           `json:"type" validate:"required,oneof=SALES PURCHASE SALES_RETURN PURCHASE_RETURN"`
	PartyID  int64            `json:"party_id" validate:"required"`
	Date     string           `json:"date" validate:"required"`
	Lines    []LineRequest    `json:"lines" validate:"required,min=1,dive"`
	TaxLines []TaxLineRequest `json:"tax_lines" validate:"dive"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

// InvoiceResponse is the JSON shape of an invoice.
type InvoiceResponse struct {
	ID         int64             `json:"id"`
	Number     string            `json:"number"`
	Type       string            `json:"type"`
	PartyID    int64             `json:"party_id"`
	Date       string            `json:"date"`
	Subtotal   string            `json:"subtotal"`
	TaxTotal   string            `json:"tax_total"`
	Total      string            `json:"total"`
	PaidAmount string            `json:"paid_amount"`
	Balance    string            `json:"balance"`
	Status     string            `json:"status"`
	JournalID  *int64            `json:"journal_id,omitempty"`
	Lines      []LineResponse    `json:"lines,omitempty"`
	TaxLines   []TaxLineResponse `json:"tax_lines,omitempty"`
}

// LineResponse is the JSON shape of one invoice row.
type LineResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
}

// TaxLineResponse is the JSON shape of one tax bucket.
type TaxLineResponse struct {
	ID            int64  `json:"id"`
	TaxCode       string `json:"tax_code"`
	TaxableAmount string `json:"taxable_amount"`
	TaxAmount     string `json:"tax_amount"`
}

func toResponse(inv Invoice) InvoiceResponse {
	out := InvoiceResponse{
		ID:         inv.ID,
		Number:     inv.Number,
		Type:       string(inv.Type),
		PartyID:    inv.PartyID,
		Date:       inv.Date.Format("2006-01-02"),
		Subtotal:   inv.Subtotal.StringFixed(2),
		TaxTotal:   inv.TaxTotal.StringFixed(2),
		Total:      inv.Total.StringFixed(2),
		PaidAmount: inv.PaidAmount.StringFixed(2),
		Balance:    inv.Balance.StringFixed(2),
		Status:     string(inv.Status),
		JournalID:  inv.JournalID,
	}
	for _, line := range inv.Lines {
		out.Lines = append(out.Lines, LineResponse{
			ID:          line.ID,
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Amount:      line.Amount.StringFixed(2),
		})
	}
	for _, tl := range inv.TaxLines {
		out.TaxLines = append(out.TaxLines, TaxLineResponse{
			ID:            tl.ID,
			TaxCode:       tl.TaxCode,
			TaxableAmount: tl.TaxableAmount.StringFixed(2),
			TaxAmount:     tl.TaxAmount.StringFixed(2),
		})
	}
	return out
}
