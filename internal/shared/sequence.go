package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sequence kinds used for tenant-scoped document numbering.
const (
	SeqJournal      = "journal"
	SeqAsset        = "asset"
	SeqDepreciation = "depreciation"
	SeqInvoice      = "invoice"
	SeqPayment      = "payment"
)

var seqPrefixes = map[string]string{
	SeqJournal:      "JRNL",
	SeqAsset:        "AST",
	SeqDepreciation: "DEPR",
	SeqInvoice:      "INV",
	SeqPayment:      "PAY",
}

// FormatCode renders a sequence value as a document code, e.g. DEPR00007.
func FormatCode(kind string, value int64) string {
	prefix, ok := seqPrefixes[kind]
	if !ok {
		prefix = "DOC"
	}
	return fmt.Sprintf("%s%05d", prefix, value)
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so numbers can be
// allocated inside the caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sequencer allocates tenant-scoped monotonically increasing document
// numbers. Allocation is a single atomic upsert, never read-then-write, so
// concurrent creators cannot observe the same value.
type Sequencer struct {
	db *pgxpool.Pool
}

// NewSequencer returns a Sequencer backed by the given pool.
func NewSequencer(db *pgxpool.Pool) *Sequencer {
	return &Sequencer{db: db}
}

// Next allocates the next number for (tenant, kind) outside a transaction.
func (s *Sequencer) Next(ctx context.Context, tenantID int64, kind string) (string, error) {
	return NextCode(ctx, s.db, tenantID, kind)
}

// NextCode allocates the next number for (tenant, kind) on the given querier.
// Pass the enclosing pgx.Tx to make the allocation part of a larger atomic
// unit; a rolled-back transaction releases the number as a gap, never a
// duplicate.
func NextCode(ctx context.Context, q Querier, tenantID int64, kind string) (string, error) {
	var value int64
	err := q.QueryRow(ctx, `INSERT INTO sequences (tenant_id, kind, value) VALUES ($1, $2, 1)
ON CONFLICT (tenant_id, kind) DO UPDATE SET value = sequences.value + 1
RETURNING value`, tenantID, kind).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("shared: allocate %s sequence: %w", kind, err)
	}
	return FormatCode(kind, value), nil
}
