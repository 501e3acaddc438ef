package depreciation

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus enumerates depreciation run states.
type RunStatus string

const (
	RunStatusDraft      RunStatus = "DRAFT"
	RunStatusCalculated RunStatus = "CALCULATED"
	RunStatusPosted     RunStatus = "POSTED"
)

// Run is one periodic depreciation computation across a set of assets.
// A posted run is immutable.
type Run struct {
	ID                int64
	TenantID          int64
	Number            string
	RunDate           time.Time
	PeriodStart       time.Time
	PeriodEnd         time.Time
	Status            RunStatus
	TotalDepreciation decimal.Decimal
	JournalID         *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Lines             []RunLine
}

// RunLine records the movement for one asset inside a run.
type RunLine struct {
	ID                int64
	RunID             int64
	AssetID           int64
	Amount            decimal.Decimal
	AccumulatedBefore decimal.Decimal
	AccumulatedAfter  decimal.Decimal
	NetBookBefore     decimal.Decimal
	NetBookAfter      decimal.Decimal
}
