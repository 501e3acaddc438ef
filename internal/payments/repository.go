package payments

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/platform/db"
	"github.com/northbooks/northbooks/internal/shared"
)

// Repository persists payments and their allocations.
type Repository interface {
	Get(ctx context.Context, tenantID, paymentID int64) (Payment, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Payment, error)
	PostingAccounts(ctx context.Context, tenantID int64, typ PaymentType) (cashAccountID, partyAccountID int64, err error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ListFilter narrows payment listings.
type ListFilter struct {
	Type    PaymentType
	Status  PaymentStatus
	PartyID int64
}

// SettleTarget is the slice of an invoice the allocation engine needs.
type SettleTarget struct {
	ID     int64
	Total  decimal.Decimal
	Status invoices.InvoiceStatus
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, tenantID int64) (string, error)
	Insert(ctx context.Context, tenantID int64, p Payment) (Payment, error)
	GetForUpdate(ctx context.Context, tenantID, paymentID int64) (Payment, error)
	SetStatus(ctx context.Context, tenantID, paymentID int64, status PaymentStatus, journalID *int64) error
	LockInvoice(ctx context.Context, tenantID, invoiceID int64) (SettleTarget, error)
	// AllocatedExcluding sums allocations against the invoice from every
	// non-cancelled payment other than the given one.
	AllocatedExcluding(ctx context.Context, tenantID, invoiceID, paymentID int64) (decimal.Decimal, error)
	ReplaceAllocations(ctx context.Context, paymentID int64, allocations []Allocation) error
	UpdateInvoiceSettlement(ctx context.Context, tenantID, invoiceID int64, paid, balance decimal.Decimal, status invoices.InvoiceStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, tenant_id, number, type, party_id, date, amount, method, reference, status, journal_id, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.TenantID, &p.Number, &p.Type, &p.PartyID, &p.Date, &p.Amount, &p.Method, &p.Reference, &p.Status, &p.JournalID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadAllocations(ctx context.Context, q querier, p *Payment) error {
	rows, err := q.Query(ctx, `SELECT id, payment_id, invoice_id, amount FROM payment_allocations WHERE payment_id=$1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceID, &a.Amount); err != nil {
			return err
		}
		p.Allocations = append(p.Allocations, a)
	}
	return rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, paymentID int64) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 AND tenant_id=$2`, paymentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	if err := loadAllocations(ctx, r.db, &p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id=$1`
	args := []any{tenantID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type=$2`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status=$` + strconv.Itoa(len(args))
	}
	if filter.PartyID != 0 {
		args = append(args, filter.PartyID)
		query += ` AND party_id=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY number DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PostingAccounts resolves cash and party control accounts for auto-posting.
func (r *repository) PostingAccounts(ctx context.Context, tenantID int64, typ PaymentType) (int64, int64, error) {
	var cash, receivable, payable *int64
	err := r.db.QueryRow(ctx, `SELECT cash_account_id, receivable_account_id, payable_account_id FROM ledger_settings WHERE tenant_id=$1`, tenantID).
		Scan(&cash, &receivable, &payable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNoDefaultAccounts
		}
		return 0, 0, err
	}
	party := receivable
	if typ == TypePayment {
		party = payable
	}
	if cash == nil || party == nil {
		return 0, 0, ErrNoDefaultAccounts
	}
	return *cash, *party, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextNumber(ctx context.Context, tenantID int64) (string, error) {
	return shared.NextCode(ctx, r.tx, tenantID, shared.SeqPayment)
}

func (r *txRepository) Insert(ctx context.Context, tenantID int64, p Payment) (Payment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO payments (tenant_id, number, type, party_id, date, amount, method, reference, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'DRAFT') RETURNING `+paymentColumns,
		tenantID, p.Number, p.Type, p.PartyID, p.Date, p.Amount.StringFixed(2), p.Method, p.Reference)
	return scanPayment(row)
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, paymentID int64) (Payment, error) {
	p, err := scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 AND tenant_id=$2 FOR UPDATE`, paymentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	if err := loadAllocations(ctx, r.tx, &p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) SetStatus(ctx context.Context, tenantID, paymentID int64, status PaymentStatus, journalID *int64) error {
	var err error
	if journalID != nil {
		_, err = r.tx.Exec(ctx, `UPDATE payments SET status=$3, journal_id=$4, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, paymentID, tenantID, status, *journalID)
	} else {
		_, err = r.tx.Exec(ctx, `UPDATE payments SET status=$3, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, paymentID, tenantID, status)
	}
	return err
}

func (r *txRepository) LockInvoice(ctx context.Context, tenantID, invoiceID int64) (SettleTarget, error) {
	var target SettleTarget
	err := r.tx.QueryRow(ctx, `SELECT id, total, status FROM invoices WHERE id=$1 AND tenant_id=$2 FOR UPDATE`, invoiceID, tenantID).
		Scan(&target.ID, &target.Total, &target.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SettleTarget{}, shared.ErrNotFound
		}
		return SettleTarget{}, err
	}
	return target, nil
}

func (r *txRepository) AllocatedExcluding(ctx context.Context, tenantID, invoiceID, paymentID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(a.amount), 0)
FROM payment_allocations a
JOIN payments p ON p.id = a.payment_id
WHERE a.invoice_id=$1 AND p.tenant_id=$2 AND a.payment_id <> $3 AND p.status <> 'CANCELLED'`,
		invoiceID, tenantID, paymentID).Scan(&sum)
	return sum, err
}

func (r *txRepository) ReplaceAllocations(ctx context.Context, paymentID int64, allocations []Allocation) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id=$1`, paymentID); err != nil {
		return err
	}
	for _, a := range allocations {
		if _, err := r.tx.Exec(ctx, `INSERT INTO payment_allocations (payment_id, invoice_id, amount) VALUES ($1,$2,$3)`,
			paymentID, a.InvoiceID, a.Amount.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdateInvoiceSettlement(ctx context.Context, tenantID, invoiceID int64, paid, balance decimal.Decimal, status invoices.InvoiceStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET paid_amount=$3, balance=$4, status=$5, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`,
		invoiceID, tenantID, paid.StringFixed(2), balance.StringFixed(2), status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
