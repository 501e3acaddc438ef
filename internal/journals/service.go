package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northbooks/northbooks/internal/shared"
)

// PostListener is notified after a journal reaches POSTED, outside the
// transaction. Report caches hang off this.
type PostListener interface {
	JournalPosted(ctx context.Context, tenantID int64)
}

// Service is the only legitimate path by which account balances change.
type Service struct {
	repo     Repository
	audit    shared.AuditPort
	listener PostListener
	now      func() time.Time
}

func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithPostListener registers the post notification target.
func (s *Service) WithPostListener(listener PostListener) {
	s.listener = listener
}

func (s *Service) notifyPosted(ctx context.Context, tenantID int64) {
	if s.listener != nil {
		s.listener.JournalPosted(ctx, tenantID)
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID, filter)
}

func (s *Service) Get(ctx context.Context, entryID int64) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	return s.repo.GetWithLines(ctx, id.TenantID, entryID)
}

// CreateDraft validates the line set and stores the journal in DRAFT.
func (s *Service) CreateDraft(ctx context.Context, in CreateInput) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if in.SourceModule == "" {
		in.SourceModule = "MANUAL"
	}
	if in.SourceID == uuid.Nil {
		in.SourceID = uuid.New()
	}
	var entry JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.checkAccounts(ctx, tx, id.TenantID, in.Lines); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, id.TenantID, in, number, JournalStatusDraft)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
			return err
		}
		entry, err = tx.GetForUpdate(ctx, id.TenantID, inserted.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, id, "journal.create", entry, shared.AuditInsert)
	return entry, nil
}

// Submit moves a draft into SUBMITTED after revalidating balance.
func (s *Service) Submit(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.transition(ctx, entryID, JournalStatusSubmitted, "journal.submit")
}

// Post commits the journal so it affects balances and reports. Posting an
// already posted journal is a no-op success so callers can retry safely.
func (s *Service) Post(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.transition(ctx, entryID, JournalStatusPosted, "journal.post")
}

func (s *Service) transition(ctx context.Context, entryID int64, target JournalStatus, action string) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	var noop bool
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, entryID)
		if err != nil {
			return err
		}
		if current.Status == target {
			entry = current
			noop = true
			return nil
		}
		switch target {
		case JournalStatusSubmitted:
			if current.Status != JournalStatusDraft {
				return ErrInvalidStatus
			}
		case JournalStatusPosted:
			if current.Status != JournalStatusDraft && current.Status != JournalStatusSubmitted {
				return ErrInvalidStatus
			}
		default:
			return ErrInvalidStatus
		}
		// Defense against stale drafts: the stored lines are the source of truth.
		debit, credit := Totals(current.Lines)
		if !shared.WithinTolerance(debit, credit) {
			return ErrUnbalanced
		}
		if target == JournalStatusPosted {
			open, err := tx.OpenPeriodCovers(ctx, id.TenantID, current.Date)
			if err != nil {
				return err
			}
			if !open {
				return ErrClosedPeriod
			}
		}
		if err := tx.SetStatus(ctx, id.TenantID, entryID, target, "", id.UserID); err != nil {
			return err
		}
		entry = current
		entry.Status = target
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if !noop {
		s.record(ctx, id, action, entry, shared.AuditUpdate)
		if target == JournalStatusPosted {
			s.notifyPosted(ctx, id.TenantID)
		}
	}
	return entry, nil
}

// Cancel is permitted only while the journal has not affected balances.
// Posted journals are undone via Reverse, never mutated.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	var noop bool
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id.TenantID, in.EntryID)
		if err != nil {
			return err
		}
		if current.Status == JournalStatusCancelled {
			entry = current
			noop = true
			return nil
		}
		if current.Status == JournalStatusPosted {
			return ErrAlreadyPosted
		}
		if err := tx.SetStatus(ctx, id.TenantID, in.EntryID, JournalStatusCancelled, in.Reason, 0); err != nil {
			return err
		}
		entry = current
		entry.Status = JournalStatusCancelled
		entry.CancelReason = in.Reason
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if !noop {
		s.record(ctx, id, "journal.cancel", entry, shared.AuditUpdate)
	}
	return entry, nil
}

// Reverse creates and posts a balancing journal with debit and credit
// swapped. It is the only way to undo a posted journal.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	var reversal JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetForUpdate(ctx, id.TenantID, in.EntryID)
		if err != nil {
			return err
		}
		if original.Status != JournalStatusPosted {
			return ErrInvalidStatus
		}
		posting := CreateInput{
			Date:         s.now(),
			Description:  defaultReversalMemo(in.Memo, original.Number),
			SourceModule: original.SourceModule + ":REVERSAL",
			SourceID:     uuid.New(),
			Lines:        reverseLines(original.Lines),
		}
		open, err := tx.OpenPeriodCovers(ctx, id.TenantID, posting.Date)
		if err != nil {
			return err
		}
		if !open {
			return ErrClosedPeriod
		}
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, id.TenantID, posting, number, JournalStatusPosted)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, posting.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, id.TenantID, posting.SourceModule, posting.SourceID, inserted.ID); err != nil {
			return err
		}
		reversal, err = tx.GetForUpdate(ctx, id.TenantID, inserted.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, id, "journal.reverse", reversal, shared.AuditInsert)
	s.notifyPosted(ctx, id.TenantID)
	return reversal, nil
}

// PostForSource creates and posts a journal on behalf of another engine
// (depreciation, invoices, payments) in one atomic unit. When the source is
// already linked the existing entry is returned, making retries convergent.
func (s *Service) PostForSource(ctx context.Context, in CreateInput) (JournalEntry, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if in.SourceModule == "" || in.SourceID == uuid.Nil {
		return JournalEntry{}, errors.New("journals: source module and id required")
	}
	var entry JournalEntry
	var replay bool
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if existingID, err := tx.FindBySource(ctx, id.TenantID, in.SourceModule, in.SourceID); err == nil {
			entry, err = tx.GetForUpdate(ctx, id.TenantID, existingID)
			replay = true
			return err
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := s.checkAccounts(ctx, tx, id.TenantID, in.Lines); err != nil {
			return err
		}
		open, err := tx.OpenPeriodCovers(ctx, id.TenantID, in.Date)
		if err != nil {
			return err
		}
		if !open {
			return ErrClosedPeriod
		}
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, id.TenantID, in, number, JournalStatusPosted)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, id.TenantID, in.SourceModule, in.SourceID, inserted.ID); err != nil {
			return err
		}
		entry, err = tx.GetForUpdate(ctx, id.TenantID, inserted.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if !replay {
		s.record(ctx, id, "journal.post", entry, shared.AuditInsert)
		s.notifyPosted(ctx, id.TenantID)
	}
	return entry, nil
}

func (s *Service) checkAccounts(ctx context.Context, tx TxRepository, tenantID int64, lines []LineInput) error {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	missing, err := tx.CountInactiveAccounts(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	if missing > 0 {
		return ErrUnknownAccount
	}
	return nil
}

func (s *Service) record(ctx context.Context, id shared.Identity, action string, entry JournalEntry, op string) {
	if s.audit == nil {
		return
	}
	debit, credit := Totals(entry.Lines)
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Op:       op,
		After: map[string]any{
			"number": entry.Number,
			"status": string(entry.Status),
			"action": action,
			"debit":  debit.StringFixed(2),
			"credit": credit.StringFixed(2),
		},
		At: s.now(),
	})
}

func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return out
}

func defaultReversalMemo(memo, number string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", number)
}
