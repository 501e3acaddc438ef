package depreciation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/shared"
)

// JournalPoster is the slice of the journal engine the depreciation engine
// needs. Posting is idempotent per source, so a retry after a partial
// failure converges instead of double-posting.
type JournalPoster interface {
	PostForSource(ctx context.Context, in journals.CreateInput) (journals.JournalEntry, error)
}

type Service struct {
	repo    Repository
	journal JournalPoster
	audit   shared.AuditPort
	now     func() time.Time
}

func NewService(repo Repository, journal JournalPoster, audit shared.AuditPort) *Service {
	return &Service{repo: repo, journal: journal, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Calculate computes one month of depreciation per eligible asset and
// stores the run in CALCULATED. Asset depreciation fields are advanced in
// the same transaction; an asset whose net book value reaches salvage is
// retired as DISPOSED.
func (s *Service) Calculate(ctx context.Context, asOf time.Time, assetIDs []int64) (Run, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Run{}, err
	}
	if asOf.IsZero() {
		return Run{}, ErrInvalidInput
	}
	periodStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	var run Run
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		eligible, err := tx.SelectAssetsForUpdate(ctx, id.TenantID, assets.AssetStatusActive, assetIDs)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleAssets
		}
		var total decimal.Decimal
		lines := make([]RunLine, 0, len(eligible))
		type assetUpdate struct {
			assetID     int64
			accumulated decimal.Decimal
			netBook     decimal.Decimal
			retire      bool
		}
		updates := make([]assetUpdate, 0, len(eligible))
		for _, asset := range eligible {
			amount, err := MonthlyAmount(asset)
			if err != nil {
				return err
			}
			accumAfter := asset.AccumulatedDepreciation.Add(amount)
			netBookAfter := asset.PurchaseValue.Sub(accumAfter)
			lines = append(lines, RunLine{
				AssetID:           asset.ID,
				Amount:            amount,
				AccumulatedBefore: asset.AccumulatedDepreciation,
				AccumulatedAfter:  accumAfter,
				NetBookBefore:     asset.NetBookValue,
				NetBookAfter:      netBookAfter,
			})
			updates = append(updates, assetUpdate{
				assetID:     asset.ID,
				accumulated: accumAfter,
				netBook:     netBookAfter,
				retire:      netBookAfter.LessThanOrEqual(asset.SalvageValue),
			})
			total = total.Add(amount)
		}
		number, err := tx.NextNumber(ctx, id.TenantID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertRun(ctx, id.TenantID, Run{
			Number:            number,
			RunDate:           asOf,
			PeriodStart:       periodStart,
			PeriodEnd:         periodEnd,
			Status:            RunStatusCalculated,
			TotalDepreciation: total,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
			return err
		}
		for _, u := range updates {
			if err := tx.UpdateAssetDepreciation(ctx, id.TenantID, u.assetID, u.accumulated, u.netBook, u.retire); err != nil {
				return err
			}
		}
		run, err = tx.GetRunForUpdate(ctx, id.TenantID, inserted.ID)
		return err
	})
	if err != nil {
		return Run{}, err
	}
	s.record(ctx, id, "depreciation.calculate", run, shared.AuditInsert)
	return run, nil
}

// PostToJournal commits the run to the ledger: depreciation expense debit,
// accumulated depreciation credit, amount equal to the run total.
func (s *Service) PostToJournal(ctx context.Context, runID int64) (Run, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Run{}, err
	}
	current, err := s.repo.GetRun(ctx, id.TenantID, runID)
	if err != nil {
		return Run{}, err
	}
	if current.Status == RunStatusPosted {
		return Run{}, ErrAlreadyPosted
	}
	expenseID, accumulatedID, err := s.repo.DefaultAccounts(ctx, id.TenantID)
	if err != nil {
		return Run{}, err
	}
	// The journal engine dedupes by source, so a crash between posting and
	// marking the run leaves a retry that attaches to the same entry.
	sourceID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("DEPR:%d:%d", id.TenantID, current.ID)))
	entry, err := s.journal.PostForSource(ctx, journals.CreateInput{
		Date:         current.RunDate,
		Description:  fmt.Sprintf("Depreciation run %s", current.Number),
		SourceModule: "DEPRECIATION.RUN",
		SourceID:     sourceID,
		Lines: []journals.LineInput{
			{AccountID: expenseID, Debit: current.TotalDepreciation, Memo: current.Number},
			{AccountID: accumulatedID, Credit: current.TotalDepreciation, Memo: current.Number},
		},
	})
	if err != nil {
		return Run{}, err
	}
	var posted Run
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetRunForUpdate(ctx, id.TenantID, runID)
		if err != nil {
			return err
		}
		if locked.Status == RunStatusPosted {
			posted = locked
			return nil
		}
		if err := tx.MarkPosted(ctx, id.TenantID, runID, entry.ID); err != nil {
			return err
		}
		posted = locked
		posted.Status = RunStatusPosted
		posted.JournalID = &entry.ID
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	s.record(ctx, id, "depreciation.post", posted, shared.AuditUpdate)
	return posted, nil
}

// Delete removes a draft or calculated run and its lines. Posted runs are
// immutable.
func (s *Service) Delete(ctx context.Context, runID int64) error {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return err
	}
	var deleted Run
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetRunForUpdate(ctx, id.TenantID, runID)
		if err != nil {
			return err
		}
		if current.Status == RunStatusPosted {
			return ErrCannotDeletePosted
		}
		deleted = current
		return tx.DeleteRun(ctx, id.TenantID, runID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, id, "depreciation.delete", deleted, shared.AuditDelete)
	return nil
}

func (s *Service) Get(ctx context.Context, runID int64) (Run, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Run{}, err
	}
	return s.repo.GetRun(ctx, id.TenantID, runID)
}

func (s *Service) List(ctx context.Context) ([]Run, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRuns(ctx, id.TenantID)
}

func (s *Service) record(ctx context.Context, id shared.Identity, action string, run Run, op string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Entity:   "depreciation_run",
		EntityID: fmt.Sprintf("%d", run.ID),
		Op:       op,
		After: map[string]any{
			"number": run.Number,
			"status": string(run.Status),
			"action": action,
			"total":  run.TotalDepreciation.StringFixed(2),
		},
		At: s.now(),
	})
}
