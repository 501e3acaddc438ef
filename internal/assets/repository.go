package assets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbooks/northbooks/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, tenantID int64, a Asset) (Asset, error)
	Update(ctx context.Context, tenantID int64, a Asset) (Asset, error)
	GetByID(ctx context.Context, tenantID, id int64) (Asset, error)
	List(ctx context.Context, tenantID int64, status AssetStatus) ([]Asset, error)
	SetStatus(ctx context.Context, tenantID, id int64, from AssetStatus, to AssetStatus) error
	NextCode(ctx context.Context, tenantID int64) (string, error)
}

type repository struct {
	db  *pgxpool.Pool
	seq *shared.Sequencer
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db, seq: shared.NewSequencer(db)}
}

const assetColumns = `id, tenant_id, code, name, purchase_date, purchase_value, salvage_value, useful_life_years, method, accumulated_depreciation, net_book_value, status, created_at, updated_at`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.PurchaseDate, &a.PurchaseValue, &a.SalvageValue, &a.UsefulLifeYears, &a.Method, &a.AccumulatedDepreciation, &a.NetBookValue, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) NextCode(ctx context.Context, tenantID int64) (string, error) {
	return r.seq.Next(ctx, tenantID, shared.SeqAsset)
}

func (r *repository) Create(ctx context.Context, tenantID int64, a Asset) (Asset, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO assets (tenant_id, code, name, purchase_date, purchase_value, salvage_value, useful_life_years, method, accumulated_depreciation, net_book_value, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$5,'ACTIVE') RETURNING `+assetColumns,
		tenantID, a.Code, a.Name, a.PurchaseDate, a.PurchaseValue.StringFixed(2), a.SalvageValue.StringFixed(2), a.UsefulLifeYears, a.Method)
	return scanAsset(row)
}

func (r *repository) Update(ctx context.Context, tenantID int64, a Asset) (Asset, error) {
	row := r.db.QueryRow(ctx, `UPDATE assets SET name=$3, updated_at=NOW() WHERE id=$1 AND tenant_id=$2 RETURNING `+assetColumns, a.ID, tenantID, a.Name)
	updated, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, shared.ErrNotFound
		}
		return Asset{}, err
	}
	return updated, nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id int64) (Asset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, shared.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, status AssetStatus) ([]Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		query += ` AND status=$2`
	}
	query += ` ORDER BY code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetStatus performs the one-way terminal transition. The WHERE clause pins
// the expected current status so concurrent disposals cannot both win.
func (r *repository) SetStatus(ctx context.Context, tenantID, id int64, from, to AssetStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE assets SET status=$4, updated_at=NOW() WHERE id=$1 AND tenant_id=$2 AND status=$3`, id, tenantID, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrConflict
	}
	return nil
}
