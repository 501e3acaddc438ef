package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/northbooks/northbooks/internal/shared"
)

// GLIntegrityScanner re-checks that every posted journal still balances.
// The request path enforces this invariant; the scan exists to catch
// storage-level corruption and logs what it finds instead of mutating.
type GLIntegrityScanner struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewGLIntegrityScanner(db *pgxpool.Pool, logger *slog.Logger) *GLIntegrityScanner {
	return &GLIntegrityScanner{db: db, logger: logger}
}

// Handle processes TaskGLIntegrityScan tasks.
func (s *GLIntegrityScanner) Handle(ctx context.Context, t *asynq.Task) error {
	return s.Run(ctx)
}

// Run scans all tenants in one pass and logs every unbalanced journal.
func (s *GLIntegrityScanner) Run(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `SELECT e.tenant_id, e.id, e.number, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_entries e
JOIN journal_lines l ON l.journal_id = e.id
WHERE e.status = 'POSTED'
GROUP BY e.tenant_id, e.id, e.number
HAVING ABS(SUM(l.debit) - SUM(l.credit)) > 0.01`)
	if err != nil {
		return err
	}
	defer rows.Close()
	found := 0
	for rows.Next() {
		var tenantID, entryID int64
		var number string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&tenantID, &entryID, &number, &debit, &credit); err != nil {
			return err
		}
		found++
		s.logger.Error("unbalanced posted journal",
			slog.Int64("tenant_id", tenantID),
			slog.Int64("journal_id", entryID),
			slog.String("number", number),
			slog.String("debit", debit.StringFixed(2)),
			slog.String("credit", credit.StringFixed(2)),
			slog.String("diff", debit.Sub(credit).StringFixed(2)))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.logger.Info("gl integrity scan complete",
		slog.Int("discrepancies", found),
		slog.String("tolerance", shared.BalanceTolerance.String()))
	return nil
}
