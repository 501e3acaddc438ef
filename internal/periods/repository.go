package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoFiscalPeriod indicates no period covers the requested date.
var ErrNoFiscalPeriod = errors.New("periods: no fiscal period for date")

// ErrOverlap indicates the new period window intersects an existing one.
var ErrOverlap = errors.New("periods: window overlaps existing period")

type Repository interface {
	Create(ctx context.Context, tenantID int64, p Period) (Period, error)
	List(ctx context.Context, tenantID int64) ([]Period, error)
	FindForDate(ctx context.Context, tenantID int64, date time.Time) (Period, error)
	FindOpenForDate(ctx context.Context, tenantID int64, date time.Time) (Period, error)
	Close(ctx context.Context, tenantID, periodID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, tenant_id, code, start_date, end_date, status, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.TenantID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Create(ctx context.Context, tenantID int64, p Period) (Period, error) {
	var overlapping int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fiscal_periods WHERE tenant_id=$1 AND start_date <= $3 AND end_date >= $2`,
		tenantID, p.StartDate, p.EndDate).Scan(&overlapping)
	if err != nil {
		return Period{}, err
	}
	if overlapping > 0 {
		return Period{}, ErrOverlap
	}
	row := r.db.QueryRow(ctx, `INSERT INTO fiscal_periods (tenant_id, code, start_date, end_date, status)
VALUES ($1,$2,$3,$4,'OPEN') RETURNING `+periodColumns, tenantID, p.Code, p.StartDate, p.EndDate)
	return scanPeriod(row)
}

func (r *repository) List(ctx context.Context, tenantID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE tenant_id=$1 ORDER BY start_date`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindForDate returns the period whose window contains the supplied date.
func (r *repository) FindForDate(ctx context.Context, tenantID int64, date time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods
WHERE tenant_id=$1 AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, tenantID, date)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNoFiscalPeriod
		}
		return Period{}, err
	}
	return p, nil
}

// FindOpenForDate returns the open period covering the supplied date.
func (r *repository) FindOpenForDate(ctx context.Context, tenantID int64, date time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods
WHERE tenant_id=$1 AND status='OPEN' AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, tenantID, date)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNoFiscalPeriod
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Close(ctx context.Context, tenantID, periodID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fiscal_periods SET status='CLOSED', closed_at=NOW(), updated_at=NOW()
WHERE id=$1 AND tenant_id=$2 AND status='OPEN'`, periodID, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoFiscalPeriod
	}
	return nil
}
