package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/shared"
)

// InvoiceType enumerates document kinds.
type InvoiceType string

const (
	TypeSales          InvoiceType = "SALES"
	TypePurchase       InvoiceType = "PURCHASE"
	TypeSalesReturn    InvoiceType = "SALES_RETURN"
	TypePurchaseReturn InvoiceType = "PURCHASE_RETURN"
)

// InvoiceStatus enumerates invoice lifecycle values. PAID and
// PARTIALLY_PAID are derived by the payment allocation engine.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusSubmitted     InvoiceStatus = "SUBMITTED"
	StatusPosted        InvoiceStatus = "POSTED"
	StatusPaid          InvoiceStatus = "PAID"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice models a sales or purchase document. Balance is always
// total minus paid amount and is never set independently.
type Invoice struct {
	ID         int64
	TenantID   int64
	Number     string
	Type       InvoiceType
	PartyID    int64
	Date       time.Time
	Subtotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	Total      decimal.Decimal
	PaidAmount decimal.Decimal
	Balance    decimal.Decimal
	Status     InvoiceStatus
	JournalID  *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []InvoiceLine
	TaxLines   []TaxLine
}

// InvoiceLine is one goods/services row.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// TaxLine is one tax bucket on the invoice; tax transactions derive from
// these on posting.
type TaxLine struct {
	ID            int64
	InvoiceID     int64
	TaxCode       string
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
}

// Recompute derives subtotal, tax total, total and balance from the lines.
func (inv *Invoice) Recompute() {
	var subtotal, taxTotal decimal.Decimal
	for i := range inv.Lines {
		inv.Lines[i].Amount = shared.Round2(inv.Lines[i].Quantity.Mul(inv.Lines[i].UnitPrice))
		subtotal = subtotal.Add(inv.Lines[i].Amount)
	}
	for _, tl := range inv.TaxLines {
		taxTotal = taxTotal.Add(tl.TaxAmount)
	}
	inv.Subtotal = shared.Round2(subtotal)
	inv.TaxTotal = shared.Round2(taxTotal)
	inv.Total = inv.Subtotal.Add(inv.TaxTotal)
	inv.Balance = inv.Total.Sub(inv.PaidAmount)
}
