package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/shared"
)

// JournalPoster is the slice of the journal engine used for auto-posting.
type JournalPoster interface {
	PostForSource(ctx context.Context, in journals.CreateInput) (journals.JournalEntry, error)
	Reverse(ctx context.Context, in journals.ReverseInput) (journals.JournalEntry, error)
}

// TaxDeriver regenerates tax transactions when an invoice posts.
type TaxDeriver interface {
	DeriveForInvoice(ctx context.Context, inv Invoice) error
}

type Service struct {
	repo    Repository
	journal JournalPoster
	tax     TaxDeriver
	audit   shared.AuditPort
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, journal JournalPoster, tax TaxDeriver, audit shared.AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, journal: journal, tax: tax, audit: audit, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	inv, err := fromRequest(in)
	if err != nil {
		return Invoice{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		inv.Number = number
		inserted, err := tx.Insert(ctx, id.TenantID, inv)
		if err != nil {
			return err
		}
		if err := tx.ReplaceLines(ctx, inserted.ID, inv.Lines, inv.TaxLines); err != nil {
			return err
		}
		inv, err = tx.GetForUpdate(ctx, id.TenantID, inserted.ID)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, id, "invoice.create", inv, shared.AuditInsert)
	return inv, nil
}

// Update replaces lines and recomputes totals. Permitted only in DRAFT.
func (s *Service) Update(ctx context.Context, invoiceID int64, in CreateRequest) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	next, err := fromRequest(in)
	if err != nil {
		return Invoice{}, err
	}
	var updated Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrNotEditable
		}
		next.ID = current.ID
		next.PaidAmount = current.PaidAmount
		next.Recompute()
		if err := tx.ReplaceLines(ctx, current.ID, next.Lines, next.TaxLines); err != nil {
			return err
		}
		if err := tx.UpdateTotals(ctx, id.TenantID, next); err != nil {
			return err
		}
		updated, err = tx.GetForUpdate(ctx, id.TenantID, invoiceID)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, id, "invoice.update", updated, shared.AuditUpdate)
	return updated, nil
}

func (s *Service) Submit(ctx context.Context, invoiceID int64) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	var inv Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidStatus
		}
		if err := tx.SetStatus(ctx, id.TenantID, invoiceID, StatusSubmitted, nil); err != nil {
			return err
		}
		inv = current
		inv.Status = StatusSubmitted
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, id, "invoice.submit", inv, shared.AuditUpdate)
	return inv, nil
}

// Post commits the invoice: an auto-posted journal moves the party,
// counter and tax accounts, then tax transactions derive from the tax
// lines. Tax derivation failure is logged and reported, not rolled back;
// the financial posting stands.
func (s *Service) Post(ctx context.Context, invoiceID int64) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	current, err := s.repo.GetWithLines(ctx, id.TenantID, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if current.Status == StatusPosted {
		return current, nil
	}
	if current.Status != StatusDraft && current.Status != StatusSubmitted {
		return Invoice{}, ErrInvalidStatus
	}
	partyAcc, counterAcc, taxAcc, err := s.repo.PostingAccounts(ctx, id.TenantID, current.Type)
	if err != nil {
		return Invoice{}, err
	}
	entry, err := s.journal.PostForSource(ctx, postingInput(current, partyAcc, counterAcc, taxAcc))
	if err != nil {
		return Invoice{}, err
	}
	var posted Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetForUpdate(ctx, id.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if locked.Status == StatusPosted {
			posted = locked
			return nil
		}
		if err := tx.SetStatus(ctx, id.TenantID, invoiceID, StatusPosted, &entry.ID); err != nil {
			return err
		}
		posted = locked
		posted.Status = StatusPosted
		posted.JournalID = &entry.ID
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, id, "invoice.post", posted, shared.AuditUpdate)
	if s.tax != nil {
		if err := s.tax.DeriveForInvoice(ctx, posted); err != nil {
			s.logger.Error("tax derivation failed", slog.Int64("invoice_id", posted.ID), slog.Any("error", err))
		}
	}
	return posted, nil
}

// Cancel voids a draft or submitted invoice directly. A posted invoice is
// cancelled by reversing its journal; the posted entry itself is never
// mutated.
func (s *Service) Cancel(ctx context.Context, invoiceID int64, reason string) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	current, err := s.repo.GetWithLines(ctx, id.TenantID, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	switch current.Status {
	case StatusCancelled:
		return current, nil
	case StatusDraft, StatusSubmitted:
	case StatusPosted:
		if current.JournalID == nil {
			return Invoice{}, ErrInvalidStatus
		}
		if _, err := s.journal.Reverse(ctx, journals.ReverseInput{EntryID: *current.JournalID, Memo: reason}); err != nil {
			return Invoice{}, err
		}
	default:
		return Invoice{}, ErrInvalidStatus
	}
	var cancelled Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetForUpdate(ctx, id.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, id.TenantID, invoiceID, StatusCancelled, nil); err != nil {
			return err
		}
		cancelled = locked
		cancelled.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, id, "invoice.cancel", cancelled, shared.AuditUpdate)
	return cancelled, nil
}

func (s *Service) Get(ctx context.Context, invoiceID int64) (Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Invoice{}, err
	}
	return s.repo.GetWithLines(ctx, id.TenantID, invoiceID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID, filter)
}

func fromRequest(in CreateRequest) (Invoice, error) {
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return Invoice{}, ErrInvalidInput
	}
	inv := Invoice{
		Type:    InvoiceType(in.Type),
		PartyID: in.PartyID,
		Date:    date,
		Status:  StatusDraft,
	}
	for _, line := range in.Lines {
		if !line.Quantity.IsPositive() || line.UnitPrice.IsNegative() {
			return Invoice{}, ErrInvalidInput
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	for _, tl := range in.TaxLines {
		if tl.TaxAmount.IsNegative() || tl.TaxableAmount.IsNegative() {
			return Invoice{}, ErrInvalidInput
		}
		inv.TaxLines = append(inv.TaxLines, TaxLine{
			TaxCode:       tl.TaxCode,
			TaxableAmount: tl.TaxableAmount,
			TaxAmount:     tl.TaxAmount,
		})
	}
	inv.Recompute()
	return inv, nil
}

// postingInput builds the balanced journal for an invoice. Sales: debit
// receivable for the total, credit revenue and tax. Purchases mirror it.
// Returns swap the direction.
func postingInput(inv Invoice, partyAcc, counterAcc, taxAcc int64) journals.CreateInput {
	sourceID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("INV:%d:%d", inv.TenantID, inv.ID)))
	lines := make([]journals.LineInput, 0, 3)
	debitParty := inv.Type == TypeSales || inv.Type == TypePurchaseReturn
	addLine := func(account int64, amount decimal.Decimal, debit bool) {
		if amount.IsZero() {
			return
		}
		line := journals.LineInput{AccountID: account, Memo: inv.Number}
		if debit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		lines = append(lines, line)
	}
	addLine(partyAcc, inv.Total, debitParty)
	addLine(counterAcc, inv.Subtotal, !debitParty)
	addLine(taxAcc, inv.TaxTotal, !debitParty)
	return journals.CreateInput{
		Date:         inv.Date,
		Description:  fmt.Sprintf("Invoice %s", inv.Number),
		SourceModule: "INVOICES." + string(inv.Type),
		SourceID:     sourceID,
		Lines:        lines,
	}
}

func (s *Service) record(ctx context.Context, id shared.Identity, action string, inv Invoice, op string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Entity:   "invoice",
		EntityID: fmt.Sprintf("%d", inv.ID),
		Op:       op,
		After: map[string]any{
			"number":  inv.Number,
			"status":  string(inv.Status),
			"action":  action,
			"total":   inv.Total.StringFixed(2),
			"balance": inv.Balance.StringFixed(2),
		},
		At: s.now(),
	})
}
