package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether the tax is collected or reclaimable.
type Direction string

const (
	// DirectionOutput is tax collected on sales.
	DirectionOutput Direction = "OUTPUT"
	// DirectionInput is tax paid on purchases.
	DirectionInput Direction = "INPUT"
)

// Transaction is one derived tax record; regenerated from the source
// invoice's tax lines whenever the invoice posts.
type Transaction struct {
	ID            int64
	TenantID      int64
	InvoiceID     int64
	InvoiceNumber string
	TaxCode       string
	Direction     Direction
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	Date          time.Time
	PeriodID      int64
	CreatedAt     time.Time
}
