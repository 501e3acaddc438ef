package reports

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/accounts"
	"github.com/northbooks/northbooks/internal/shared"
)

// Repository reads posted journal movement. Only POSTED journals affect
// reports; drafts, submitted and cancelled entries are invisible here.
type Repository interface {
	AccountTotals(ctx context.Context, tenantID int64, from, to time.Time, typ accounts.AccountType) ([]AccountBalance, error)
	AccountHeader(ctx context.Context, tenantID, accountID int64) (AccountBalance, error)
	LedgerLines(ctx context.Context, tenantID, accountID int64, from, to time.Time) ([]LedgerLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) AccountTotals(ctx context.Context, tenantID int64, from, to time.Time, typ accounts.AccountType) ([]AccountBalance, error) {
	query := `SELECT a.id, a.code, a.name_en, a.type, a.balance_side,
COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM accounts a
JOIN journal_lines l ON l.account_id = a.id
JOIN journal_entries e ON e.id = l.journal_id
WHERE a.tenant_id=$1 AND e.tenant_id=$1 AND e.status='POSTED' AND e.date <= $2`
	args := []any{tenantID, to}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND e.date >= $` + strconv.Itoa(len(args))
	}
	if typ != "" {
		args = append(args, typ)
		query += ` AND a.type=$` + strconv.Itoa(len(args))
	}
	query += ` GROUP BY a.id, a.code, a.name_en, a.type, a.balance_side ORDER BY a.code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var bal AccountBalance
		if err := rows.Scan(&bal.AccountID, &bal.Code, &bal.Name, &bal.Type, &bal.Side, &bal.Debit, &bal.Credit); err != nil {
			return nil, err
		}
		out = append(out, bal)
	}
	return out, rows.Err()
}

func (r *repository) AccountHeader(ctx context.Context, tenantID, accountID int64) (AccountBalance, error) {
	var bal AccountBalance
	err := r.db.QueryRow(ctx, `SELECT id, code, name_en, type, balance_side FROM accounts WHERE id=$1 AND tenant_id=$2`, accountID, tenantID).
		Scan(&bal.AccountID, &bal.Code, &bal.Name, &bal.Type, &bal.Side)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountBalance{}, shared.ErrNotFound
		}
		return AccountBalance{}, err
	}
	return bal, nil
}

func (r *repository) LedgerLines(ctx context.Context, tenantID, accountID int64, from, to time.Time) ([]LedgerLine, error) {
	query := `SELECT e.date, e.id, e.number, e.description, l.memo, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_id
WHERE e.tenant_id=$1 AND l.account_id=$2 AND e.status='POSTED'`
	args := []any{tenantID, accountID}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND e.date >= $` + strconv.Itoa(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += ` AND e.date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY e.date, e.id, l.id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerLine
	for rows.Next() {
		var line LedgerLine
		if err := rows.Scan(&line.Date, &line.JournalID, &line.JournalNumber, &line.Description, &line.Memo, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
