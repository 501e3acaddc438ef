package invoices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices   map[int64]Invoice
	nextID     int64
	nextNumber int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[int64]Invoice)}
}

func (r *memoryInvoiceRepo) GetWithLines(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) PostingAccounts(ctx context.Context, tenantID int64, typ InvoiceType) (int64, int64, int64, error) {
	switch typ {
	case TypeSales, TypeSalesReturn:
		return 200, 400, 230, nil
	default:
		return 210, 500, 230, nil
	}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryInvoiceTx{repo: r})
}

type memoryInvoiceTx struct {
	repo *memoryInvoiceRepo
}

func (t *memoryInvoiceTx) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	t.repo.nextNumber++
	return shared.FormatCode(shared.SeqInvoice, t.repo.nextNumber), nil
}

func (t *memoryInvoiceTx) Insert(ctx context.Context, tenantID int64, inv Invoice) (Invoice, error) {
	t.repo.nextID++
	inv.ID = t.repo.nextID
	inv.TenantID = tenantID
	inv.Balance = inv.Total
	t.repo.invoices[inv.ID] = inv
	return inv, nil
}

func (t *memoryInvoiceTx) ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine, taxLines []TaxLine) error {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Lines = append([]InvoiceLine(nil), lines...)
	inv.TaxLines = append([]TaxLine(nil), taxLines...)
	t.repo.invoices[invoiceID] = inv
	return nil
}

func (t *memoryInvoiceTx) UpdateTotals(ctx context.Context, tenantID int64, inv Invoice) error {
	current, ok := t.repo.invoices[inv.ID]
	if !ok || current.TenantID != tenantID {
		return shared.ErrNotFound
	}
	current.PartyID = inv.PartyID
	current.Date = inv.Date
	current.Subtotal = inv.Subtotal
	current.TaxTotal = inv.TaxTotal
	current.Total = inv.Total
	current.Balance = inv.Total.Sub(current.PaidAmount)
	t.repo.invoices[inv.ID] = current
	return nil
}

func (t *memoryInvoiceTx) GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	return t.repo.GetWithLines(ctx, tenantID, invoiceID)
}

func (t *memoryInvoiceTx) SetStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus, journalID *int64) error {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return shared.ErrNotFound
	}
	inv.Status = status
	if journalID != nil {
		inv.JournalID = journalID
	}
	t.repo.invoices[invoiceID] = inv
	return nil
}

type fakePoster struct {
	posted   []journals.CreateInput
	reversed []journals.ReverseInput
	nextID   int64
}

func (f *fakePoster) PostForSource(ctx context.Context, in journals.CreateInput) (journals.JournalEntry, error) {
	f.posted = append(f.posted, in)
	f.nextID++
	return journals.JournalEntry{ID: f.nextID, Status: journals.JournalStatusPosted}, nil
}

func (f *fakePoster) Reverse(ctx context.Context, in journals.ReverseInput) (journals.JournalEntry, error) {
	f.reversed = append(f.reversed, in)
	f.nextID++
	return journals.JournalEntry{ID: f.nextID, Status: journals.JournalStatusPosted}, nil
}

type fakeDeriver struct {
	derived []Invoice
	err     error
}

func (f *fakeDeriver) DeriveForInvoice(ctx context.Context, inv Invoice) error {
	f.derived = append(f.derived, inv)
	return f.err
}

func testCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{TenantID: 1, UserID: 7})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func salesRequest() CreateRequest {
	return CreateRequest{
		Type:    string(TypeSales),
		PartyID: 5,
		Date:    "2026-04-15",
		Lines: []LineRequest{
			{Description: "Consulting", Quantity: dec("10"), UnitPrice: dec("100.00")},
		},
		TaxLines: []TaxLineRequest{
			{TaxCode: "VAT15", TaxableAmount: dec("1000.00"), TaxAmount: dec("150.00")},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo, &fakePoster{}, &fakeDeriver{}, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)
	require.Equal(t, "INV00001", inv.Number)
	require.Equal(t, StatusDraft, inv.Status)
	require.Equal(t, "1000.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "150.00", inv.TaxTotal.StringFixed(2))
	require.Equal(t, "1150.00", inv.Total.StringFixed(2))
}

func TestCreateRejectsBadLines(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), &fakePoster{}, &fakeDeriver{}, nil, testLogger())

	in := salesRequest()
	in.Lines[0].Quantity = dec("0")
	_, err := svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidInput)

	in = salesRequest()
	in.Date = "15/04/2026"
	_, err = svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateOnlyInDraft(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo, &fakePoster{}, &fakeDeriver{}, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)

	in := salesRequest()
	in.Lines[0].UnitPrice = dec("90.00")
	updated, err := svc.Update(testCtx(), inv.ID, in)
	require.NoError(t, err)
	require.Equal(t, "900.00", updated.Subtotal.StringFixed(2))

	_, err = svc.Submit(testCtx(), inv.ID)
	require.NoError(t, err)

	_, err = svc.Update(testCtx(), inv.ID, in)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestPostBuildsBalancedJournal(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	poster := &fakePoster{}
	deriver := &fakeDeriver{}
	svc := NewService(repo, poster, deriver, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)

	posted, err := svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.JournalID)

	require.Len(t, poster.posted, 1)
	in := poster.posted[0]
	require.Equal(t, "INVOICES.SALES", in.SourceModule)
	require.Len(t, in.Lines, 3)

	// Sales: debit receivable for the total, credit revenue and tax.
	require.Equal(t, int64(200), in.Lines[0].AccountID)
	require.True(t, in.Lines[0].Debit.Equal(dec("1150.00")))
	require.Equal(t, int64(400), in.Lines[1].AccountID)
	require.True(t, in.Lines[1].Credit.Equal(dec("1000.00")))
	require.Equal(t, int64(230), in.Lines[2].AccountID)
	require.True(t, in.Lines[2].Credit.Equal(dec("150.00")))

	require.Len(t, deriver.derived, 1)
}

func TestPostIsIdempotent(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	poster := &fakePoster{}
	svc := NewService(repo, poster, &fakeDeriver{}, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)

	first, err := svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)
	again, err := svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, *first.JournalID, *again.JournalID)
	require.Len(t, poster.posted, 1)
}

func TestPostPurchaseSwapsSides(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	poster := &fakePoster{}
	svc := NewService(repo, poster, &fakeDeriver{}, nil, testLogger())

	in := salesRequest()
	in.Type = string(TypePurchase)
	inv, err := svc.Create(testCtx(), in)
	require.NoError(t, err)

	_, err = svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)

	lines := poster.posted[0].Lines
	require.True(t, lines[0].Credit.Equal(dec("1150.00")))
	require.True(t, lines[1].Debit.Equal(dec("1000.00")))
	require.True(t, lines[2].Debit.Equal(dec("150.00")))
}

func TestPostSurvivesTaxDerivationFailure(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	deriver := &fakeDeriver{err: errors.New("no fiscal period")}
	svc := NewService(repo, &fakePoster{}, deriver, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)

	posted, err := svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
}

func TestCancelPostedReverses(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	poster := &fakePoster{}
	svc := NewService(repo, poster, &fakeDeriver{}, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)
	_, err = svc.Post(testCtx(), inv.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(testCtx(), inv.ID, "duplicate entry")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Len(t, poster.reversed, 1)
	require.Equal(t, "duplicate entry", poster.reversed[0].Memo)

	// Cancelling again is a no-op success with no second reversal.
	_, err = svc.Cancel(testCtx(), inv.ID, "again")
	require.NoError(t, err)
	require.Len(t, poster.reversed, 1)
}

func TestCancelDraftSkipsLedger(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	poster := &fakePoster{}
	svc := NewService(repo, poster, &fakeDeriver{}, nil, testLogger())

	inv, err := svc.Create(testCtx(), salesRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(testCtx(), inv.ID, "typo")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Empty(t, poster.reversed)
}

func TestServiceRequiresTenant(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), &fakePoster{}, &fakeDeriver{}, nil, testLogger())

	_, err := svc.Get(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrNoTenant)
}
