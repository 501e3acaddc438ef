package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/shared"
)

// ErrDuplicateCode indicates the account code already exists in the tenant.
var ErrDuplicateCode = errors.New("accounts: code already exists")

type Repository interface {
	Create(ctx context.Context, tenantID int64, a Account) (Account, error)
	Update(ctx context.Context, tenantID int64, a Account) (Account, error)
	GetByID(ctx context.Context, tenantID, id int64) (Account, error)
	List(ctx context.Context, tenantID int64) ([]Account, error)
	SetActive(ctx context.Context, tenantID, id int64, active bool) error
	HasLinesInOpenPeriod(ctx context.Context, tenantID, accountID int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, tenant_id, code, name_en, name_ar, type, balance_side, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.NameEN, &a.NameAR, &a.Type, &a.BalanceSide, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Create(ctx context.Context, tenantID int64, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name_en, name_ar, type, balance_side, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE) RETURNING `+accountColumns,
		tenantID, a.Code, a.NameEN, a.NameAR, a.Type, a.BalanceSide, a.ParentID)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateCode
		}
		return Account{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, tenantID int64, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET name_en=$3, name_ar=$4, parent_id=$5, updated_at=NOW()
WHERE id=$1 AND tenant_id=$2 RETURNING `+accountColumns, a.ID, tenantID, a.NameEN, a.NameAR, a.ParentID)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return updated, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, tenantID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) SetActive(ctx context.Context, tenantID, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW() WHERE id=$1 AND tenant_id=$2`, id, tenantID, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasLinesInOpenPeriod reports whether the account carries journal lines
// dated inside a currently open fiscal period.
func (r *repository) HasLinesInOpenPeriod(ctx context.Context, tenantID, accountID int64) (bool, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.journal_id
JOIN fiscal_periods fp ON fp.tenant_id = je.tenant_id AND je.date BETWEEN fp.start_date AND fp.end_date
WHERE je.tenant_id=$1 AND jl.account_id=$2 AND fp.status='OPEN'`, tenantID, accountID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
