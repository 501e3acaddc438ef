package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit operations.
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditLog represents one immutable record in audit_logs. Before and After
// hold full entity snapshots; Changed lists the fields that differ.
type AuditLog struct {
	TenantID int64
	ActorID  int64
	Entity   string
	EntityID string
	Op       string
	Before   map[string]any
	After    map[string]any
	Changed  []string
	At       time.Time
}

// AuditPort is implemented by AuditLogger and by test fakes.
type AuditPort interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger appends records into audit_logs. Records are append-only;
// there is no update or delete path.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("shared: audit logger not initialised")
	}
	if log.TenantID == 0 || log.Entity == "" || log.EntityID == "" || log.Op == "" {
		return errors.New("shared: audit log requires tenant/entity/entity_id/op")
	}
	beforeJSON, err := json.Marshal(log.Before)
	if err != nil {
		return err
	}
	afterJSON, err := json.Marshal(log.After)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (id, tenant_id, actor_id, entity, entity_id, op, before, after, changed, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		uuid.New(), log.TenantID, log.ActorID, log.Entity, log.EntityID, log.Op, beforeJSON, afterJSON, log.Changed, at)
	return err
}

// ChangedFields diffs two snapshots and returns the keys whose values differ.
func ChangedFields(before, after map[string]any) []string {
	var changed []string
	for key, bv := range before {
		av, ok := after[key]
		if !ok {
			changed = append(changed, key)
			continue
		}
		if !jsonEqual(bv, av) {
			changed = append(changed, key)
		}
	}
	for key := range after {
		if _, ok := before[key]; !ok {
			changed = append(changed, key)
		}
	}
	return changed
}

func jsonEqual(a, b any) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
