package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes money received from money paid out.
type PaymentType string

const (
	TypeReceipt PaymentType = "RECEIPT"
	TypePayment PaymentType = "PAYMENT"
)

// PaymentStatus enumerates the payment lifecycle.
type PaymentStatus string

const (
	StatusDraft     PaymentStatus = "DRAFT"
	StatusSubmitted PaymentStatus = "SUBMITTED"
	StatusApproved  PaymentStatus = "APPROVED"
	StatusPosted    PaymentStatus = "POSTED"
	StatusCancelled PaymentStatus = "CANCELLED"
)

// Payment models a receipt or disbursement that settles invoices
// through its allocation set.
type Payment struct {
	ID          int64
	TenantID    int64
	Number      string
	Type        PaymentType
	PartyID     int64
	Date        time.Time
	Amount      decimal.Decimal
	Method      string
	Reference   string
	Status      PaymentStatus
	JournalID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Allocations []Allocation
}

// Allocation applies part of a payment against one invoice.
type Allocation struct {
	ID        int64
	PaymentID int64
	InvoiceID int64
	Amount    decimal.Decimal
}

// AllocatedTotal sums the allocation set.
func (p Payment) AllocatedTotal() decimal.Decimal {
	var total decimal.Decimal
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}
