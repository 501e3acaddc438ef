package journals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/shared"
)

type memoryJournalRepo struct {
	entries          map[int64]JournalEntry
	lines            map[int64][]JournalLine
	sources          map[string]int64
	inactiveAccounts map[int64]bool
	closedDates      map[string]bool
	nextID           int64
	nextNumber       int64
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{
		entries:          make(map[int64]JournalEntry),
		lines:            make(map[int64][]JournalLine),
		sources:          make(map[string]int64),
		inactiveAccounts: make(map[int64]bool),
		closedDates:      make(map[string]bool),
	}
}

func (r *memoryJournalRepo) List(ctx context.Context, tenantID int64, filter ListFilter) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryJournalRepo) GetWithLines(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	e, ok := r.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return JournalEntry{}, shared.ErrNotFound
	}
	e.Lines = append([]JournalLine(nil), r.lines[entryID]...)
	return e, nil
}

func (r *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryJournalTx{repo: r})
}

type memoryJournalTx struct {
	repo *memoryJournalRepo
}

func (t *memoryJournalTx) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	t.repo.nextNumber++
	return shared.FormatCode(shared.SeqJournal, t.repo.nextNumber), nil
}

func (t *memoryJournalTx) InsertEntry(ctx context.Context, tenantID int64, in CreateInput, number string, status JournalStatus) (JournalEntry, error) {
	t.repo.nextID++
	entry := JournalEntry{
		ID:           t.repo.nextID,
		TenantID:     tenantID,
		Number:       number,
		Date:         in.Date,
		Status:       status,
		Description:  in.Description,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
	}
	t.repo.entries[entry.ID] = entry
	return entry, nil
}

func (t *memoryJournalTx) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for i, in := range lines {
		t.repo.lines[entryID] = append(t.repo.lines[entryID], JournalLine{
			ID:        int64(i + 1),
			JournalID: entryID,
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
			Memo:      in.Memo,
		})
	}
	return nil
}

func sourceKey(tenantID int64, module string, ref uuid.UUID) string {
	return fmt.Sprintf("%d:%s:%s", tenantID, module, ref)
}

func (t *memoryJournalTx) LinkSource(ctx context.Context, tenantID int64, module string, ref uuid.UUID, entryID int64) error {
	key := sourceKey(tenantID, module, ref)
	if _, exists := t.repo.sources[key]; exists {
		return ErrSourceAlreadyLinked
	}
	t.repo.sources[key] = entryID
	return nil
}

func (t *memoryJournalTx) FindBySource(ctx context.Context, tenantID int64, module string, ref uuid.UUID) (int64, error) {
	id, ok := t.repo.sources[sourceKey(tenantID, module, ref)]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

func (t *memoryJournalTx) GetForUpdate(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	return t.repo.GetWithLines(ctx, tenantID, entryID)
}

func (t *memoryJournalTx) SetStatus(ctx context.Context, tenantID, entryID int64, status JournalStatus, reason string, postedBy int64) error {
	e, ok := t.repo.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return shared.ErrNotFound
	}
	e.Status = status
	if reason != "" {
		e.CancelReason = reason
	}
	t.repo.entries[entryID] = e
	return nil
}

func (t *memoryJournalTx) CountInactiveAccounts(ctx context.Context, tenantID int64, accountIDs []int64) (int64, error) {
	var n int64
	for _, id := range accountIDs {
		if t.repo.inactiveAccounts[id] {
			n++
		}
	}
	return n, nil
}

func (t *memoryJournalTx) OpenPeriodCovers(ctx context.Context, tenantID int64, date time.Time) (bool, error) {
	return !t.repo.closedDates[date.Format("2006-01")], nil
}

func testCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{TenantID: 1, UserID: 7})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balancedInput() CreateInput {
	return CreateInput{
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "Office supplies",
		Lines: []LineInput{
			{AccountID: 10, Debit: dec("150.00")},
			{AccountID: 20, Credit: dec("150.00")},
		},
	}
}

func TestCreateDraftValidation(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(testCtx(), CreateInput{
		Date:  time.Now(),
		Lines: []LineInput{{AccountID: 10, Debit: dec("100")}},
	})
	require.ErrorIs(t, err, ErrTooFewLines)

	_, err = svc.CreateDraft(testCtx(), CreateInput{
		Date: time.Now(),
		Lines: []LineInput{
			{AccountID: 10, Debit: dec("100.00")},
			{AccountID: 20, Credit: dec("99.00")},
		},
	})
	require.ErrorIs(t, err, ErrUnbalanced)

	// 0.01 is within tolerance and must pass.
	entry, err := svc.CreateDraft(testCtx(), CreateInput{
		Date: time.Now(),
		Lines: []LineInput{
			{AccountID: 10, Debit: dec("100.00")},
			{AccountID: 20, Credit: dec("99.99")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, JournalStatusDraft, entry.Status)
	require.Equal(t, "JRNL00001", entry.Number)
}

func TestCreateDraftRejectsTwoSidedLine(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(testCtx(), CreateInput{
		Date: time.Now(),
		Lines: []LineInput{
			{AccountID: 10, Debit: dec("50.00"), Credit: dec("50.00")},
			{AccountID: 20},
		},
	})
	require.Error(t, err)
}

func TestCreateDraftRejectsInactiveAccount(t *testing.T) {
	repo := newMemoryJournalRepo()
	repo.inactiveAccounts[20] = true
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(testCtx(), balancedInput())
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestPostIsIdempotent(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)

	posted, err := svc.Post(testCtx(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, posted.Status)

	again, err := svc.Post(testCtx(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, again.Status)
}

func TestPostIntoClosedPeriodFails(t *testing.T) {
	repo := newMemoryJournalRepo()
	repo.closedDates["2026-03"] = true
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)

	_, err = svc.Post(testCtx(), entry.ID)
	require.ErrorIs(t, err, ErrClosedPeriod)
}

func TestCancelPostedFails(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)
	_, err = svc.Post(testCtx(), entry.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(testCtx(), CancelInput{EntryID: entry.ID, Reason: "typo"})
	require.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestCancelDraft(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(testCtx(), CancelInput{EntryID: entry.ID, Reason: "duplicate"})
	require.NoError(t, err)
	require.Equal(t, JournalStatusCancelled, cancelled.Status)
	require.Equal(t, "duplicate", cancelled.CancelReason)

	// Cancelling again is a no-op success.
	_, err = svc.Cancel(testCtx(), CancelInput{EntryID: entry.ID, Reason: "again"})
	require.NoError(t, err)
}

func TestReverseSwapsSides(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)
	_, err = svc.Post(testCtx(), entry.ID)
	require.NoError(t, err)

	reversal, err := svc.Reverse(testCtx(), ReverseInput{EntryID: entry.ID})
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, reversal.Status)
	require.Len(t, reversal.Lines, 2)
	require.True(t, reversal.Lines[0].Credit.Equal(dec("150.00")))
	require.True(t, reversal.Lines[1].Debit.Equal(dec("150.00")))
}

func TestReverseRequiresPosted(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	entry, err := svc.CreateDraft(testCtx(), balancedInput())
	require.NoError(t, err)

	_, err = svc.Reverse(testCtx(), ReverseInput{EntryID: entry.ID})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPostForSourceReplayReturnsExisting(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	in := balancedInput()
	in.SourceModule = "INVOICES.SALES"
	in.SourceID = uuid.NewSHA1(uuid.Nil, []byte("INV:1:42"))

	first, err := svc.PostForSource(testCtx(), in)
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, first.Status)

	second, err := svc.PostForSource(testCtx(), in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.entries, 1)
}

func TestServiceRequiresTenant(t *testing.T) {
	repo := newMemoryJournalRepo()
	svc := NewService(repo, nil)

	_, err := svc.CreateDraft(context.Background(), balancedInput())
	require.ErrorIs(t, err, shared.ErrNoTenant)
}
