package depreciation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/platform/db"
	"github.com/northbooks/northbooks/internal/shared"
)

// Repository persists depreciation runs. All mutating flows go through
// WithTx so run, lines and asset updates commit together.
type Repository interface {
	GetRun(ctx context.Context, tenantID, runID int64) (Run, error)
	ListRuns(ctx context.Context, tenantID int64) ([]Run, error)
	DefaultAccounts(ctx context.Context, tenantID int64) (expenseID, accumulatedID int64, err error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	SelectAssetsForUpdate(ctx context.Context, tenantID int64, status assets.AssetStatus, assetIDs []int64) ([]assets.Asset, error)
	NextNumber(ctx context.Context, tenantID int64) (string, error)
	InsertRun(ctx context.Context, tenantID int64, run Run) (Run, error)
	InsertLines(ctx context.Context, runID int64, lines []RunLine) error
	UpdateAssetDepreciation(ctx context.Context, tenantID, assetID int64, accumulated, netBook decimal.Decimal, retire bool) error
	GetRunForUpdate(ctx context.Context, tenantID, runID int64) (Run, error)
	MarkPosted(ctx context.Context, tenantID, runID, journalID int64) error
	DeleteRun(ctx context.Context, tenantID, runID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const runColumns = `id, tenant_id, number, run_date, period_start, period_end, status, total_depreciation, journal_id, created_at, updated_at`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.TenantID, &run.Number, &run.RunDate, &run.PeriodStart, &run.PeriodEnd, &run.Status, &run.TotalDepreciation, &run.JournalID, &run.CreatedAt, &run.UpdatedAt)
	return run, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRunLines(ctx context.Context, q querier, runID int64) ([]RunLine, error) {
	rows, err := q.Query(ctx, `SELECT id, run_id, asset_id, amount, accumulated_before, accumulated_after, net_book_before, net_book_after
FROM depreciation_lines WHERE run_id=$1 ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []RunLine
	for rows.Next() {
		var line RunLine
		if err := rows.Scan(&line.ID, &line.RunID, &line.AssetID, &line.Amount, &line.AccumulatedBefore, &line.AccumulatedAfter, &line.NetBookBefore, &line.NetBookAfter); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) GetRun(ctx context.Context, tenantID, runID int64) (Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM depreciation_runs WHERE id=$1 AND tenant_id=$2`, runID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, shared.ErrNotFound
		}
		return Run{}, err
	}
	run.Lines, err = queryRunLines(ctx, r.db, runID)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (r *repository) ListRuns(ctx context.Context, tenantID int64) ([]Run, error) {
	rows, err := r.db.Query(ctx, `SELECT `+runColumns+` FROM depreciation_runs WHERE tenant_id=$1 ORDER BY number DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *repository) DefaultAccounts(ctx context.Context, tenantID int64) (int64, int64, error) {
	var expenseID, accumulatedID *int64
	err := r.db.QueryRow(ctx, `SELECT depreciation_expense_account_id, accumulated_depreciation_account_id
FROM ledger_settings WHERE tenant_id=$1`, tenantID).Scan(&expenseID, &accumulatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNoDefaultAccounts
		}
		return 0, 0, err
	}
	if expenseID == nil || accumulatedID == nil {
		return 0, 0, ErrNoDefaultAccounts
	}
	return *expenseID, *accumulatedID, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) SelectAssetsForUpdate(ctx context.Context, tenantID int64, status assets.AssetStatus, assetIDs []int64) ([]assets.Asset, error) {
	query := `SELECT id, tenant_id, code, name, purchase_date, purchase_value, salvage_value, useful_life_years, method, accumulated_depreciation, net_book_value, status, created_at, updated_at
FROM assets WHERE tenant_id=$1 AND status=$2`
	args := []any{tenantID, status}
	if len(assetIDs) > 0 {
		args = append(args, assetIDs)
		query += ` AND id = ANY($3)`
	}
	query += ` ORDER BY id FOR UPDATE`
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []assets.Asset
	for rows.Next() {
		var a assets.Asset
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.PurchaseDate, &a.PurchaseValue, &a.SalvageValue, &a.UsefulLifeYears, &a.Method, &a.AccumulatedDepreciation, &a.NetBookValue, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *txRepository) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	return shared.NextCode(ctx, r.tx, tenantID, shared.SeqDepreciation)
}

func (r *txRepository) InsertRun(ctx context.Context, tenantID int64, run Run) (Run, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO depreciation_runs (tenant_id, number, run_date, period_start, period_end, status, total_depreciation)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+runColumns,
		tenantID, run.Number, run.RunDate, run.PeriodStart, run.PeriodEnd, run.Status, run.TotalDepreciation.StringFixed(2))
	return scanRun(row)
}

func (r *txRepository) InsertLines(ctx context.Context, runID int64, lines []RunLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO depreciation_lines (run_id, asset_id, amount, accumulated_before, accumulated_after, net_book_before, net_book_after)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, runID, line.AssetID,
			line.Amount.StringFixed(2), line.AccumulatedBefore.StringFixed(2), line.AccumulatedAfter.StringFixed(2),
			line.NetBookBefore.StringFixed(2), line.NetBookAfter.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdateAssetDepreciation(ctx context.Context, tenantID, assetID int64, accumulated, netBook decimal.Decimal, retire bool) error {
	status := assets.AssetStatusActive
	if retire {
		status = assets.AssetStatusDisposed
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE assets SET accumulated_depreciation=$3, net_book_value=$4, status=$5, updated_at=NOW()
WHERE id=$1 AND tenant_id=$2`, assetID, tenantID, accumulated.StringFixed(2), netBook.StringFixed(2), status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetRunForUpdate(ctx context.Context, tenantID, runID int64) (Run, error) {
	run, err := scanRun(r.tx.QueryRow(ctx, `SELECT `+runColumns+` FROM depreciation_runs WHERE id=$1 AND tenant_id=$2 FOR UPDATE`, runID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, shared.ErrNotFound
		}
		return Run{}, err
	}
	run.Lines, err = queryRunLines(ctx, r.tx, runID)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (r *txRepository) MarkPosted(ctx context.Context, tenantID, runID, journalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE depreciation_runs SET status='POSTED', journal_id=$3, updated_at=NOW()
WHERE id=$1 AND tenant_id=$2 AND status <> 'POSTED'`, runID, tenantID, journalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyPosted
	}
	return nil
}

func (r *txRepository) DeleteRun(ctx context.Context, tenantID, runID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM depreciation_lines WHERE run_id IN (
SELECT id FROM depreciation_runs WHERE id=$1 AND tenant_id=$2)`, runID, tenantID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM depreciation_runs WHERE id=$1 AND tenant_id=$2`, runID, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
