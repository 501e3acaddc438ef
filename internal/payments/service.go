package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/shared"
)

// JournalPoster is the slice of the journal engine used for auto-posting.
type JournalPoster interface {
	PostForSource(ctx context.Context, in journals.CreateInput) (journals.JournalEntry, error)
	Reverse(ctx context.Context, in journals.ReverseInput) (journals.JournalEntry, error)
}

type Service struct {
	repo    Repository
	journal JournalPoster
	audit   shared.AuditPort
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, journal JournalPoster, audit shared.AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, journal: journal, audit: audit, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil || !in.Amount.IsPositive() {
		return Payment{}, ErrInvalidInput
	}
	payment := Payment{
		Type:      PaymentType(in.Type),
		PartyID:   in.PartyID,
		Date:      date,
		Amount:    shared.Round2(in.Amount),
		Method:    in.Method,
		Reference: in.Reference,
		Status:    StatusDraft,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		payment.Number = number
		payment, err = tx.Insert(ctx, id.TenantID, payment)
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, id, "payment.create", payment, shared.AuditInsert)
	return payment, nil
}

func (s *Service) Get(ctx context.Context, paymentID int64) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	return s.repo.Get(ctx, id.TenantID, paymentID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID, filter)
}

func (s *Service) Submit(ctx context.Context, paymentID int64) (Payment, error) {
	return s.transition(ctx, paymentID, StatusSubmitted, "payment.submit")
}

func (s *Service) Approve(ctx context.Context, paymentID int64) (Payment, error) {
	return s.transition(ctx, paymentID, StatusApproved, "payment.approve")
}

func (s *Service) transition(ctx context.Context, paymentID int64, target PaymentStatus, action string) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	var payment Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, paymentID)
		if err != nil {
			return err
		}
		switch {
		case current.Status == target:
			payment = current
			return nil
		case target == StatusSubmitted && current.Status != StatusDraft:
			return ErrInvalidStatus
		case target == StatusApproved && current.Status != StatusSubmitted:
			return ErrInvalidStatus
		}
		if err := tx.SetStatus(ctx, id.TenantID, paymentID, target, nil); err != nil {
			return err
		}
		payment = current
		payment.Status = target
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, id, action, payment, shared.AuditUpdate)
	return payment, nil
}

// Post commits the payment: receipts debit cash and credit the receivable
// control; disbursements debit the payable control and credit cash.
func (s *Service) Post(ctx context.Context, paymentID int64) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	current, err := s.repo.Get(ctx, id.TenantID, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if current.Status == StatusPosted {
		return current, nil
	}
	if current.Status == StatusCancelled {
		return Payment{}, ErrInvalidStatus
	}
	cashAcc, partyAcc, err := s.repo.PostingAccounts(ctx, id.TenantID, current.Type)
	if err != nil {
		return Payment{}, err
	}
	entry, err := s.journal.PostForSource(ctx, postingInput(current, cashAcc, partyAcc))
	if err != nil {
		return Payment{}, err
	}
	var posted Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetForUpdate(ctx, id.TenantID, paymentID)
		if err != nil {
			return err
		}
		if locked.Status == StatusPosted {
			posted = locked
			return nil
		}
		if err := tx.SetStatus(ctx, id.TenantID, paymentID, StatusPosted, &entry.ID); err != nil {
			return err
		}
		posted = locked
		posted.Status = StatusPosted
		posted.JournalID = &entry.ID
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, id, "payment.post", posted, shared.AuditUpdate)
	return posted, nil
}

// Allocate replaces the payment's allocation set and recomputes every
// affected invoice from the full set of allocations against it, including
// invoices dropped from the set. All checks and writes run in one
// transaction with the payment and each invoice row locked.
func (s *Service) Allocate(ctx context.Context, paymentID int64, in AllocateRequest) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	next := make([]Allocation, 0, len(in.Allocations))
	seen := make(map[int64]bool, len(in.Allocations))
	var total decimal.Decimal
	for _, a := range in.Allocations {
		if !a.Amount.IsPositive() || seen[a.InvoiceID] {
			return Payment{}, ErrInvalidInput
		}
		seen[a.InvoiceID] = true
		amount := shared.Round2(a.Amount)
		next = append(next, Allocation{InvoiceID: a.InvoiceID, Amount: amount})
		total = total.Add(amount)
	}
	var payment Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, paymentID)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return ErrInvalidStatus
		}
		if total.GreaterThan(current.Amount) {
			return ErrOverAllocation
		}
		// Invoices leaving the set settle back to zero from this payment.
		amounts := make(map[int64]decimal.Decimal, len(next)+len(current.Allocations))
		for _, a := range current.Allocations {
			amounts[a.InvoiceID] = decimal.Zero
		}
		for _, a := range next {
			amounts[a.InvoiceID] = a.Amount
		}
		for invoiceID, amount := range amounts {
			if err := s.settle(ctx, tx, id.TenantID, invoiceID, paymentID, amount); err != nil {
				return err
			}
		}
		if err := tx.ReplaceAllocations(ctx, paymentID, next); err != nil {
			return err
		}
		payment = current
		payment.Allocations = next
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, id, "payment.allocate", payment, shared.AuditUpdate)
	return payment, nil
}

// settle re-derives one invoice's paid amount, balance and status from the
// full allocation set, with this payment contributing the given amount.
func (s *Service) settle(ctx context.Context, tx TxRepository, tenantID, invoiceID, paymentID int64, amount decimal.Decimal) error {
	target, err := tx.LockInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	switch target.Status {
	case invoices.StatusPosted, invoices.StatusPartiallyPaid, invoices.StatusPaid:
	default:
		return ErrInvoiceNotOpen
	}
	others, err := tx.AllocatedExcluding(ctx, tenantID, invoiceID, paymentID)
	if err != nil {
		return err
	}
	outstanding := target.Total.Sub(others)
	if amount.GreaterThan(outstanding) {
		return ErrOverAllocation
	}
	// Balance is always the true residue; the tolerance decides only the
	// status, never the stored amount.
	paid := others.Add(amount)
	balance := target.Total.Sub(paid)
	status := invoices.StatusPosted
	switch {
	case paid.IsPositive() && balance.Abs().LessThanOrEqual(shared.BalanceTolerance):
		status = invoices.StatusPaid
	case paid.IsPositive():
		status = invoices.StatusPartiallyPaid
	}
	return tx.UpdateInvoiceSettlement(ctx, tenantID, invoiceID, paid, balance, status)
}

// Cancel voids the payment. A posted payment is reversed in the ledger and
// its allocations released, restoring the affected invoices.
func (s *Service) Cancel(ctx context.Context, paymentID int64) (Payment, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Payment{}, err
	}
	current, err := s.repo.Get(ctx, id.TenantID, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}
	if current.Status == StatusPosted {
		if current.JournalID == nil {
			return Payment{}, ErrInvalidStatus
		}
		if _, err := s.journal.Reverse(ctx, journals.ReverseInput{EntryID: *current.JournalID}); err != nil {
			return Payment{}, err
		}
	}
	var cancelled Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetForUpdate(ctx, id.TenantID, paymentID)
		if err != nil {
			return err
		}
		for _, a := range locked.Allocations {
			if err := s.settle(ctx, tx, id.TenantID, a.InvoiceID, paymentID, decimal.Zero); err != nil {
				return err
			}
		}
		if err := tx.ReplaceAllocations(ctx, paymentID, nil); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, id.TenantID, paymentID, StatusCancelled, nil); err != nil {
			return err
		}
		cancelled = locked
		cancelled.Status = StatusCancelled
		cancelled.Allocations = nil
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, id, "payment.cancel", cancelled, shared.AuditUpdate)
	return cancelled, nil
}

func postingInput(p Payment, cashAcc, partyAcc int64) journals.CreateInput {
	sourceID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PAY:%d:%d", p.TenantID, p.ID)))
	debitAcc, creditAcc := cashAcc, partyAcc
	if p.Type == TypePayment {
		debitAcc, creditAcc = partyAcc, cashAcc
	}
	return journals.CreateInput{
		Date:         p.Date,
		Description:  fmt.Sprintf("Payment %s", p.Number),
		SourceModule: "PAYMENTS." + string(p.Type),
		SourceID:     sourceID,
		Lines: []journals.LineInput{
			{AccountID: debitAcc, Debit: p.Amount, Memo: p.Number},
			{AccountID: creditAcc, Credit: p.Amount, Memo: p.Number},
		},
	}
}

func (s *Service) record(ctx context.Context, id shared.Identity, action string, p Payment, op string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Entity:   "payment",
		EntityID: fmt.Sprintf("%d", p.ID),
		Op:       op,
		After: map[string]any{
			"number":    p.Number,
			"status":    string(p.Status),
			"action":    action,
			"amount":    p.Amount.StringFixed(2),
			"allocated": p.AllocatedTotal().StringFixed(2),
		},
		At: s.now(),
	})
}
