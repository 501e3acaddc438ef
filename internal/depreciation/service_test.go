package depreciation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/shared"
)

type memoryRunRepo struct {
	assets     map[int64]assets.Asset
	runs       map[int64]Run
	nextID     int64
	nextNumber int64
}

func newMemoryRunRepo() *memoryRunRepo {
	return &memoryRunRepo{
		assets: make(map[int64]assets.Asset),
		runs:   make(map[int64]Run),
	}
}

func (r *memoryRunRepo) addAsset(id int64, method assets.DepreciationMethod, purchase, salvage, accumulated string, lifeYears int) {
	p := dec(purchase)
	a := dec(accumulated)
	r.assets[id] = assets.Asset{
		ID:                      id,
		TenantID:                1,
		Code:                    shared.FormatCode(shared.SeqAsset, id),
		Name:                    "Asset",
		PurchaseValue:           p,
		SalvageValue:            dec(salvage),
		UsefulLifeYears:         lifeYears,
		Method:                  method,
		AccumulatedDepreciation: a,
		NetBookValue:            p.Sub(a),
		Status:                  assets.AssetStatusActive,
	}
}

func (r *memoryRunRepo) GetRun(ctx context.Context, tenantID, runID int64) (Run, error) {
	run, ok := r.runs[runID]
	if !ok || run.TenantID != tenantID {
		return Run{}, shared.ErrNotFound
	}
	return run, nil
}

func (r *memoryRunRepo) ListRuns(ctx context.Context, tenantID int64) ([]Run, error) {
	var out []Run
	for _, run := range r.runs {
		if run.TenantID == tenantID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (r *memoryRunRepo) DefaultAccounts(ctx context.Context, tenantID int64) (int64, int64, error) {
	return 600, 150, nil
}

func (r *memoryRunRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryRunTx{repo: r})
}

type memoryRunTx struct {
	repo *memoryRunRepo
}

func (t *memoryRunTx) SelectAssetsForUpdate(ctx context.Context, tenantID int64, status assets.AssetStatus, assetIDs []int64) ([]assets.Asset, error) {
	wanted := make(map[int64]bool, len(assetIDs))
	for _, id := range assetIDs {
		wanted[id] = true
	}
	var out []assets.Asset
	for _, a := range t.repo.assets {
		if a.TenantID != tenantID || a.Status != status {
			continue
		}
		if len(wanted) > 0 && !wanted[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (t *memoryRunTx) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	t.repo.nextNumber++
	return shared.FormatCode(shared.SeqDepreciation, t.repo.nextNumber), nil
}

func (t *memoryRunTx) InsertRun(ctx context.Context, tenantID int64, run Run) (Run, error) {
	t.repo.nextID++
	run.ID = t.repo.nextID
	run.TenantID = tenantID
	t.repo.runs[run.ID] = run
	return run, nil
}

func (t *memoryRunTx) InsertLines(ctx context.Context, runID int64, lines []RunLine) error {
	run, ok := t.repo.runs[runID]
	if !ok {
		return shared.ErrNotFound
	}
	run.Lines = append([]RunLine(nil), lines...)
	t.repo.runs[runID] = run
	return nil
}

func (t *memoryRunTx) UpdateAssetDepreciation(ctx context.Context, tenantID, assetID int64, accumulated, netBook decimal.Decimal, retire bool) error {
	a, ok := t.repo.assets[assetID]
	if !ok || a.TenantID != tenantID {
		return shared.ErrNotFound
	}
	a.AccumulatedDepreciation = accumulated
	a.NetBookValue = netBook
	if retire {
		a.Status = assets.AssetStatusDisposed
	}
	t.repo.assets[assetID] = a
	return nil
}

func (t *memoryRunTx) GetRunForUpdate(ctx context.Context, tenantID, runID int64) (Run, error) {
	return t.repo.GetRun(ctx, tenantID, runID)
}

func (t *memoryRunTx) MarkPosted(ctx context.Context, tenantID, runID, journalID int64) error {
	run, ok := t.repo.runs[runID]
	if !ok || run.TenantID != tenantID {
		return shared.ErrNotFound
	}
	run.Status = RunStatusPosted
	run.JournalID = &journalID
	t.repo.runs[runID] = run
	return nil
}

func (t *memoryRunTx) DeleteRun(ctx context.Context, tenantID, runID int64) error {
	run, ok := t.repo.runs[runID]
	if !ok || run.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(t.repo.runs, runID)
	return nil
}

type fakeRunPoster struct {
	posted []journals.CreateInput
	nextID int64
}

func (f *fakeRunPoster) PostForSource(ctx context.Context, in journals.CreateInput) (journals.JournalEntry, error) {
	f.posted = append(f.posted, in)
	f.nextID++
	return journals.JournalEntry{ID: f.nextID, Status: journals.JournalStatusPosted}, nil
}

func testCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{TenantID: 1, UserID: 7})
}

func asOf() time.Time {
	return time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func TestCalculateFailsWithoutEligibleAssets(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	a := repo.assets[1]
	a.Status = assets.AssetStatusDisposed
	repo.assets[1] = a
	svc := NewService(repo, &fakeRunPoster{}, nil)

	_, err := svc.Calculate(testCtx(), asOf(), nil)
	require.ErrorIs(t, err, ErrNoEligibleAssets)
	require.Empty(t, repo.runs)
}

func TestCalculateRejectsZeroDate(t *testing.T) {
	repo := newMemoryRunRepo()
	svc := NewService(repo, &fakeRunPoster{}, nil)

	_, err := svc.Calculate(testCtx(), time.Time{}, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateBuildsRunWithSnapshots(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	svc := NewService(repo, &fakeRunPoster{}, nil)

	run, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	require.Equal(t, "DEPR00001", run.Number)
	require.Equal(t, RunStatusCalculated, run.Status)
	require.True(t, run.TotalDepreciation.Equal(dec("100.00")))
	require.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), run.PeriodStart)
	require.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), run.PeriodEnd)
	require.Len(t, run.Lines, 1)
	line := run.Lines[0]
	require.True(t, line.AccumulatedBefore.Equal(dec("0.00")))
	require.True(t, line.AccumulatedAfter.Equal(dec("100.00")))
	require.True(t, line.NetBookBefore.Equal(dec("12000.00")))
	require.True(t, line.NetBookAfter.Equal(dec("11900.00")))

	a := repo.assets[1]
	require.True(t, a.AccumulatedDepreciation.Equal(dec("100.00")))
	require.True(t, a.NetBookValue.Equal(dec("11900.00")))
	require.Equal(t, assets.AssetStatusActive, a.Status)
}

func TestCalculateRetiresAssetReachingSalvage(t *testing.T) {
	repo := newMemoryRunRepo()
	// One straight-line month left before net book value hits salvage.
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "2000.00", "9950.00", 10)
	svc := NewService(repo, &fakeRunPoster{}, nil)

	run, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	require.Len(t, run.Lines, 1)
	require.True(t, run.Lines[0].Amount.Equal(dec("50.00")))
	require.True(t, run.Lines[0].NetBookAfter.Equal(dec("2000.00")))

	a := repo.assets[1]
	require.Equal(t, assets.AssetStatusDisposed, a.Status)
	require.True(t, a.AccumulatedDepreciation.Equal(dec("10000.00")))
	require.True(t, a.NetBookValue.Equal(dec("2000.00")))
}

func TestCalculateTwiceProducesTwoIndependentRuns(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	svc := NewService(repo, &fakeRunPoster{}, nil)

	first, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	second, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, "DEPR00001", first.Number)
	require.Equal(t, "DEPR00002", second.Number)
	require.Equal(t, RunStatusCalculated, first.Status)
	require.Equal(t, RunStatusCalculated, second.Status)
	require.True(t, first.TotalDepreciation.Equal(second.TotalDepreciation))
	require.Equal(t, first.PeriodStart, second.PeriodStart)
	require.Equal(t, first.PeriodEnd, second.PeriodEnd)

	// Each run advanced the asset by one month.
	a := repo.assets[1]
	require.True(t, a.AccumulatedDepreciation.Equal(dec("200.00")))

	runs, err := svc.List(testCtx())
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestPostToJournalWritesBalancedEntry(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	poster := &fakeRunPoster{}
	svc := NewService(repo, poster, nil)

	run, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)

	posted, err := svc.PostToJournal(testCtx(), run.ID)
	require.NoError(t, err)
	require.Equal(t, RunStatusPosted, posted.Status)
	require.NotNil(t, posted.JournalID)

	require.Len(t, poster.posted, 1)
	in := poster.posted[0]
	require.Equal(t, "DEPRECIATION.RUN", in.SourceModule)
	require.Len(t, in.Lines, 2)
	require.Equal(t, int64(600), in.Lines[0].AccountID)
	require.True(t, in.Lines[0].Debit.Equal(dec("100.00")))
	require.Equal(t, int64(150), in.Lines[1].AccountID)
	require.True(t, in.Lines[1].Credit.Equal(dec("100.00")))
}

func TestPostToJournalRejectsPostedRun(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	poster := &fakeRunPoster{}
	svc := NewService(repo, poster, nil)

	run, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	_, err = svc.PostToJournal(testCtx(), run.ID)
	require.NoError(t, err)

	_, err = svc.PostToJournal(testCtx(), run.ID)
	require.ErrorIs(t, err, ErrAlreadyPosted)
	require.Len(t, poster.posted, 1)
}

func TestDeleteRemovesCalculatedRunOnly(t *testing.T) {
	repo := newMemoryRunRepo()
	repo.addAsset(1, assets.MethodStraightLine, "12000.00", "0.00", "0.00", 10)
	svc := NewService(repo, &fakeRunPoster{}, nil)

	run, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(testCtx(), run.ID))
	_, err = svc.Get(testCtx(), run.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	posted, err := svc.Calculate(testCtx(), asOf(), nil)
	require.NoError(t, err)
	_, err = svc.PostToJournal(testCtx(), posted.ID)
	require.NoError(t, err)
	err = svc.Delete(testCtx(), posted.ID)
	require.ErrorIs(t, err, ErrCannotDeletePosted)
}
