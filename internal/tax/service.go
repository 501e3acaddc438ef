package tax

import (
	"context"
	"time"

	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/periods"
	"github.com/northbooks/northbooks/internal/shared"
)

// PeriodFinder locates the fiscal period containing a date.
type PeriodFinder interface {
	FindForDate(ctx context.Context, tenantID int64, date time.Time) (periods.Period, error)
}

// Service derives tax transactions from posted invoices. Derivation is
// invoked explicitly by the invoice engine, never by storage triggers.
type Service struct {
	repo    Repository
	periods PeriodFinder
}

func NewService(repo Repository, periods PeriodFinder) *Service {
	return &Service{repo: repo, periods: periods}
}

// DeriveForInvoice replaces the invoice's tax transactions with one record
// per tax line, dated by the invoice date and bucketed into the fiscal
// period containing it. Re-running on the same invoice converges on the
// same set.
func (s *Service) DeriveForInvoice(ctx context.Context, inv invoices.Invoice) error {
	period, err := s.periods.FindForDate(ctx, inv.TenantID, inv.Date)
	if err != nil {
		return err
	}
	direction := DirectionOutput
	if inv.Type == invoices.TypePurchase || inv.Type == invoices.TypePurchaseReturn {
		direction = DirectionInput
	}
	txs := make([]Transaction, 0, len(inv.TaxLines))
	for _, tl := range inv.TaxLines {
		txs = append(txs, Transaction{
			TenantID:      inv.TenantID,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			TaxCode:       tl.TaxCode,
			Direction:     direction,
			TaxableAmount: tl.TaxableAmount,
			TaxAmount:     tl.TaxAmount,
			Date:          inv.Date,
			PeriodID:      period.ID,
		})
	}
	return s.repo.ReplaceForInvoice(ctx, inv.TenantID, inv.ID, txs)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Transaction, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID, filter)
}
