package invoices

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/platform/db"
	"github.com/northbooks/northbooks/internal/shared"
)

// Repository persists invoices with their lines and tax lines.
type Repository interface {
	GetWithLines(ctx context.Context, tenantID, invoiceID int64) (Invoice, error)
	List(ctx context.Context, tenantID int64, filter ListFilter) ([]Invoice, error)
	PostingAccounts(ctx context.Context, tenantID int64, typ InvoiceType) (partyAccountID, counterAccountID, taxAccountID int64, err error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Type    InvoiceType
	Status  InvoiceStatus
	PartyID int64
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, tenantID int64) (string, error)
	Insert(ctx context.Context, tenantID int64, inv Invoice) (Invoice, error)
	ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine, taxLines []TaxLine) error
	UpdateTotals(ctx context.Context, tenantID int64, inv Invoice) error
	GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error)
	SetStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus, journalID *int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `id, tenant_id, number, type, party_id, date, subtotal, tax_total, total, paid_amount, balance, status, journal_id, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.Type, &inv.PartyID, &inv.Date, &inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.PaidAmount, &inv.Balance, &inv.Status, &inv.JournalID, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q querier, inv *Invoice) error {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, description, quantity, unit_price, amount FROM invoice_lines WHERE invoice_id=$1 ORDER BY id`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Description, &line.Quantity, &line.UnitPrice, &line.Amount); err != nil {
			return err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	taxRows, err := q.Query(ctx, `SELECT id, invoice_id, tax_code, taxable_amount, tax_amount FROM invoice_tax_lines WHERE invoice_id=$1 ORDER BY id`, inv.ID)
	if err != nil {
		return err
	}
	defer taxRows.Close()
	for taxRows.Next() {
		var tl TaxLine
		if err := taxRows.Scan(&tl.ID, &tl.InvoiceID, &tl.TaxCode, &tl.TaxableAmount, &tl.TaxAmount); err != nil {
			return err
		}
		inv.TaxLines = append(inv.TaxLines, tl)
	}
	return taxRows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 AND tenant_id=$2`, invoiceID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	if err := loadLines(ctx, r.db, &inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, filter ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id=$1`
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
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// PostingAccounts resolves the accounts used when auto-posting an invoice
// journal: receivable/payable for the party side, revenue/expense for the
// counter side, and the tax control account.
func (r *repository) PostingAccounts(ctx context.Context, tenantID int64, typ InvoiceType) (int64, int64, int64, error) {
	var receivable, payable, revenue, expense, tax *int64
	err := r.db.QueryRow(ctx, `SELECT receivable_account_id, payable_account_id, revenue_account_id, expense_account_id, tax_payable_account_id
FROM ledger_settings WHERE tenant_id=$1`, tenantID).Scan(&receivable, &payable, &revenue, &expense, &tax)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, 0, ErrNoDefaultAccounts
		}
		return 0, 0, 0, err
	}
	var party, counter *int64
	switch typ {
	case TypeSales, TypeSalesReturn:
		party, counter = receivable, revenue
	case TypePurchase, TypePurchaseReturn:
		party, counter = payable, expense
	}
	if party == nil || counter == nil || tax == nil {
		return 0, 0, 0, ErrNoDefaultAccounts
	}
	return *party, *counter, *tax, nil
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
	return shared.NextCode(ctx, r.tx, tenantID, shared.SeqInvoice)
}

func (r *txRepository) Insert(ctx context.Context, tenantID int64, inv Invoice) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoices (tenant_id, number, type, party_id, date, subtotal, tax_total, total, paid_amount, balance, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$8,'DRAFT') RETURNING `+invoiceColumns,
		tenantID, inv.Number, inv.Type, inv.PartyID, inv.Date,
		inv.Subtotal.StringFixed(2), inv.TaxTotal.StringFixed(2), inv.Total.StringFixed(2))
	return scanInvoice(row)
}

func (r *txRepository) ReplaceLines(ctx context.Context, invoiceID int64, lines []InvoiceLine, taxLines []TaxLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, invoiceID); err != nil {
		return err
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_tax_lines WHERE invoice_id=$1`, invoiceID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, amount) VALUES ($1,$2,$3,$4,$5)`,
			invoiceID, line.Description, line.Quantity.String(), line.UnitPrice.StringFixed(2), line.Amount.StringFixed(2)); err != nil {
			return err
		}
	}
	for _, tl := range taxLines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_tax_lines (invoice_id, tax_code, taxable_amount, tax_amount) VALUES ($1,$2,$3,$4)`,
			invoiceID, tl.TaxCode, tl.TaxableAmount.StringFixed(2), tl.TaxAmount.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdateTotals(ctx context.Context, tenantID int64, inv Invoice) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET party_id=$3, date=$4, subtotal=$5, tax_total=$6, total=$7, balance=$7 - paid_amount, updated_at=NOW()
WHERE id=$1 AND tenant_id=$2`, inv.ID, tenantID, inv.PartyID, inv.Date,
		inv.Subtotal.StringFixed(2), inv.TaxTotal.StringFixed(2), inv.Total.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 AND tenant_id=$2 FOR UPDATE`, invoiceID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	if err := loadLines(ctx, r.tx, &inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) SetStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus, journalID *int64) error {
	var err error
	if journalID != nil {
		_, err = r.tx.Exec(ctx, `UPDATE invoices SET status=$3, journal_id=$4, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, invoiceID, tenantID, status, *journalID)
	} else {
		_, err = r.tx.Exec(ctx, `UPDATE invoices SET status=$3, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, invoiceID, tenantID, status)
	}
	return err
}
