package tax

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/platform/db"
)

// Repository persists derived tax transactions.
type Repository interface {
	ReplaceForInvoice(ctx context.Context, tenantID, invoiceID int64, txs []Transaction) error
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Transaction, error)
}

// ListFilter narrows tax transaction listings.
type ListFilter struct {
	TaxCode   string
	Direction Direction
	PeriodID  int64
	From      time.Time
	To        time.Time
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// ReplaceForInvoice swaps the invoice's derived set in one transaction so a
// re-derivation never leaves a partial mix of old and new records.
func (r *repository) ReplaceForInvoice(ctx context.Context, tenantID, invoiceID int64, txs []Transaction) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tax_transactions WHERE tenant_id=$1 AND invoice_id=$2`, tenantID, invoiceID); err != nil {
			return err
		}
		for _, t := range txs {
			if _, err := tx.Exec(ctx, `INSERT INTO tax_transactions
(tenant_id, invoice_id, invoice_number, tax_code, direction, taxable_amount, tax_amount, date, period_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				tenantID, t.InvoiceID, t.InvoiceNumber, t.TaxCode, t.Direction,
				t.TaxableAmount.StringFixed(2), t.TaxAmount.StringFixed(2), t.Date, t.PeriodID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Transaction, error) {
	query := `SELECT id, tenant_id, invoice_id, invoice_number, tax_code, direction, taxable_amount, tax_amount, date, period_id, created_at
FROM tax_transactions WHERE tenant_id=$1`
	args := []any{tenantID}
	if filter.TaxCode != "" {
		args = append(args, filter.TaxCode)
		query += ` AND tax_code=$` + strconv.Itoa(len(args))
	}
	if filter.Direction != "" {
		args = append(args, filter.Direction)
		query += ` AND direction=$` + strconv.Itoa(len(args))
	}
	if filter.PeriodID != 0 {
		args = append(args, filter.PeriodID)
		query += ` AND period_id=$` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date, id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.InvoiceID, &t.InvoiceNumber, &t.TaxCode, &t.Direction, &t.TaxableAmount, &t.TaxAmount, &t.Date, &t.PeriodID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
