package tax

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/periods"
)

type memoryTaxRepo struct {
	byInvoice map[int64][]Transaction
}

func newMemoryTaxRepo() *memoryTaxRepo {
	return &memoryTaxRepo{byInvoice: make(map[int64][]Transaction)}
}

func (r *memoryTaxRepo) ReplaceForInvoice(ctx context.Context, tenantID, invoiceID int64, txs []Transaction) error {
	r.byInvoice[invoiceID] = append([]Transaction(nil), txs...)
	return nil
}

func (r *memoryTaxRepo) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Transaction, error) {
	var out []Transaction
	for _, txs := range r.byInvoice {
		for _, tx := range txs {
			if tx.TenantID != tenantID {
				continue
			}
			if filter.PeriodID != 0 && tx.PeriodID != filter.PeriodID {
				continue
			}
			if filter.Direction != "" && tx.Direction != filter.Direction {
				continue
			}
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakePeriodFinder struct {
	periods []periods.Period
}

func (f *fakePeriodFinder) FindForDate(ctx context.Context, tenantID int64, date time.Time) (periods.Period, error) {
	for _, p := range f.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, periods.ErrNoFiscalPeriod
}

func monthPeriod(id int64, year int, month time.Month) periods.Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return periods.Period{
		ID:        id,
		TenantID:  1,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
		Status:    periods.PeriodStatusOpen,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func taxedInvoice(id int64, typ invoices.InvoiceType, date time.Time, lines ...invoices.TaxLine) invoices.Invoice {
	return invoices.Invoice{
		ID:       id,
		TenantID: 1,
		Number:   "INV00001",
		Type:     typ,
		Date:     date,
		TaxLines: lines,
	}
}

func TestDeriveFailsWithoutFiscalPeriod(t *testing.T) {
	repo := newMemoryTaxRepo()
	svc := NewService(repo, &fakePeriodFinder{})

	inv := taxedInvoice(1, invoices.TypeSales, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		invoices.TaxLine{TaxCode: "VAT15", TaxableAmount: dec("100.00"), TaxAmount: dec("15.00")})
	err := svc.DeriveForInvoice(context.Background(), inv)
	require.ErrorIs(t, err, periods.ErrNoFiscalPeriod)
	require.Empty(t, repo.byInvoice)
}

func TestDeriveBucketsIntoCoveringPeriod(t *testing.T) {
	repo := newMemoryTaxRepo()
	finder := &fakePeriodFinder{periods: []periods.Period{
		monthPeriod(1, 2026, time.January),
		monthPeriod(2, 2026, time.February),
	}}
	svc := NewService(repo, finder)

	inv := taxedInvoice(1, invoices.TypeSales, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC),
		invoices.TaxLine{TaxCode: "VAT15", TaxableAmount: dec("100.00"), TaxAmount: dec("15.00")},
		invoices.TaxLine{TaxCode: "VAT5", TaxableAmount: dec("40.00"), TaxAmount: dec("2.00")})
	require.NoError(t, svc.DeriveForInvoice(context.Background(), inv))

	txs := repo.byInvoice[1]
	require.Len(t, txs, 2)
	for _, tx := range txs {
		require.Equal(t, int64(2), tx.PeriodID)
		require.Equal(t, DirectionOutput, tx.Direction)
		require.Equal(t, "INV00001", tx.InvoiceNumber)
		require.Equal(t, inv.Date, tx.Date)
	}
	require.Equal(t, "VAT15", txs[0].TaxCode)
	require.True(t, txs[0].TaxAmount.Equal(dec("15.00")))
	require.Equal(t, "VAT5", txs[1].TaxCode)
	require.True(t, txs[1].TaxableAmount.Equal(dec("40.00")))
}

func TestDeriveMarksPurchasesAsInput(t *testing.T) {
	repo := newMemoryTaxRepo()
	finder := &fakePeriodFinder{periods: []periods.Period{monthPeriod(1, 2026, time.March)}}
	svc := NewService(repo, finder)

	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, typ := range []invoices.InvoiceType{invoices.TypePurchase, invoices.TypePurchaseReturn} {
		inv := taxedInvoice(1, typ, date,
			invoices.TaxLine{TaxCode: "VAT15", TaxableAmount: dec("200.00"), TaxAmount: dec("30.00")})
		require.NoError(t, svc.DeriveForInvoice(context.Background(), inv))
		require.Equal(t, DirectionInput, repo.byInvoice[1][0].Direction)
	}
}

func TestDeriveReplacesEarlierTransactions(t *testing.T) {
	repo := newMemoryTaxRepo()
	finder := &fakePeriodFinder{periods: []periods.Period{monthPeriod(1, 2026, time.March)}}
	svc := NewService(repo, finder)

	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	inv := taxedInvoice(1, invoices.TypeSales, date,
		invoices.TaxLine{TaxCode: "VAT15", TaxableAmount: dec("100.00"), TaxAmount: dec("15.00")},
		invoices.TaxLine{TaxCode: "VAT5", TaxableAmount: dec("40.00"), TaxAmount: dec("2.00")})
	require.NoError(t, svc.DeriveForInvoice(context.Background(), inv))
	require.Len(t, repo.byInvoice[1], 2)

	// Re-deriving after a correction drops the stale rows.
	inv.TaxLines = inv.TaxLines[:1]
	require.NoError(t, svc.DeriveForInvoice(context.Background(), inv))
	txs := repo.byInvoice[1]
	require.Len(t, txs, 1)
	require.Equal(t, "VAT15", txs[0].TaxCode)

	// Re-running unchanged converges on the same set.
	require.NoError(t, svc.DeriveForInvoice(context.Background(), inv))
	require.Len(t, repo.byInvoice[1], 1)
}
