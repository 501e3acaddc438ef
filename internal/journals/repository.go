package journals

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/platform/db"
	"github.com/northbooks/northbooks/internal/shared"
)

// Repository encapsulates DB operations for journals. Mutations run through
// WithTx so header, lines and source link commit as one unit.
type Repository interface {
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]JournalEntry, error)
	GetWithLines(ctx context.Context, tenantID, entryID int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ListFilter narrows journal listings.
type ListFilter struct {
	Status   JournalStatus
	DateFrom time.Time
	DateTo   time.Time
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, tenantID int64) (string, error)
	InsertEntry(ctx context.Context, tenantID int64, in CreateInput, number string, status JournalStatus) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	LinkSource(ctx context.Context, tenantID int64, module string, ref uuid.UUID, entryID int64) error
	FindBySource(ctx context.Context, tenantID int64, module string, ref uuid.UUID) (int64, error)
	GetForUpdate(ctx context.Context, tenantID, entryID int64) (JournalEntry, error)
	SetStatus(ctx context.Context, tenantID, entryID int64, status JournalStatus, reason string, postedBy int64) error
	CountInactiveAccounts(ctx context.Context, tenantID int64, accountIDs []int64) (int64, error)
	OpenPeriodCovers(ctx context.Context, tenantID int64, date time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, tenant_id, number, date, status, description, source_module, source_id, posted_by, posted_at, cancel_reason, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.Number, &e.Date, &e.Status, &e.Description, &e.SourceModule, &e.SourceID, &e.PostedBy, &e.PostedAt, &e.CancelReason, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE tenant_id=$1`
	args := []any{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status=$2`
	}
	if !filter.DateFrom.IsZero() {
		args = append(args, filter.DateFrom)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !filter.DateTo.IsZero() {
		args = append(args, filter.DateTo)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY number DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND tenant_id=$2`, entryID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q rowQuerier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, journal_id, account_id, debit, credit, memo, created_at, updated_at
FROM journal_lines WHERE journal_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.Memo, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	return shared.NextCode(ctx, r.tx, tenantID, shared.SeqJournal)
}

func (r *txRepository) InsertEntry(ctx context.Context, tenantID int64, in CreateInput, number string, status JournalStatus) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (tenant_id, number, date, status, description, source_module, source_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+entryColumns,
		tenantID, number, in.Date, status, in.Description, in.SourceModule, in.SourceID)
	return scanEntry(row)
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (journal_id, account_id, debit, credit, memo)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Debit.StringFixed(2), line.Credit.StringFixed(2), line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, tenantID int64, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (tenant_id, module, ref_id, journal_id) VALUES ($1,$2,$3,$4)`, tenantID, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *txRepository) FindBySource(ctx context.Context, tenantID int64, module string, ref uuid.UUID) (int64, error) {
	var entryID int64
	err := r.tx.QueryRow(ctx, `SELECT journal_id FROM source_links WHERE tenant_id=$1 AND module=$2 AND ref_id=$3`, tenantID, module, ref).Scan(&entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return entryID, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND tenant_id=$2 FOR UPDATE`, entryID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.tx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) SetStatus(ctx context.Context, tenantID, entryID int64, status JournalStatus, reason string, postedBy int64) error {
	var cmd pgconn.CommandTag
	var err error
	switch status {
	case JournalStatusPosted:
		cmd, err = r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, posted_by=$4, posted_at=NOW(), updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, entryID, tenantID, status, postedBy)
	case JournalStatusCancelled:
		cmd, err = r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, cancel_reason=$4, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, entryID, tenantID, status, reason)
	default:
		cmd, err = r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, entryID, tenantID, status)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) CountInactiveAccounts(ctx context.Context, tenantID int64, accountIDs []int64) (int64, error) {
	var active int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE tenant_id=$1 AND is_active AND id = ANY($2)`, tenantID, accountIDs).Scan(&active)
	if err != nil {
		return 0, err
	}
	return int64(len(uniqueIDs(accountIDs))) - active, nil
}

func (r *txRepository) OpenPeriodCovers(ctx context.Context, tenantID int64, date time.Time) (bool, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM fiscal_periods WHERE tenant_id=$1 AND status='OPEN' AND $2 BETWEEN start_date AND end_date`, tenantID, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

