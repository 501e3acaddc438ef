package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one immutable audit trail row as returned to readers.
type Record struct {
	ID       uuid.UUID
	TenantID int64
	ActorID  int64
	Entity   string
	EntityID string
	Op       string
	Before   json.RawMessage
	After    json.RawMessage
	Changed  []string
	At       time.Time
}

// Filters narrows audit listings.
type Filters struct {
	Entity   string
	EntityID string
	ActorID  int64
	Op       string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// Repository reads the audit trail. Writes happen exclusively through
// shared.AuditLogger; readers never mutate.
type Repository interface {
	List(ctx context.Context, tenantID int64, f Filters) ([]Record, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, tenantID int64, f Filters) ([]Record, error) {
	query := `SELECT id, tenant_id, actor_id, entity, entity_id, op, before, after, changed, occurred_at
FROM audit_logs WHERE tenant_id=$1`
	args := []any{tenantID}
	if f.Entity != "" {
		args = append(args, f.Entity)
		query += ` AND entity=$` + strconv.Itoa(len(args))
	}
	if f.EntityID != "" {
		args = append(args, f.EntityID)
		query += ` AND entity_id=$` + strconv.Itoa(len(args))
	}
	if f.ActorID != 0 {
		args = append(args, f.ActorID)
		query += ` AND actor_id=$` + strconv.Itoa(len(args))
	}
	if f.Op != "" {
		args = append(args, f.Op)
		query += ` AND op=$` + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += ` AND occurred_at >= $` + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += ` AND occurred_at <= $` + strconv.Itoa(len(args))
	}
	args = append(args, f.PageSize)
	query += ` ORDER BY occurred_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (f.Page-1)*f.PageSize)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.ActorID, &rec.Entity, &rec.EntityID, &rec.Op, &rec.Before, &rec.After, &rec.Changed, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
