package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/northbooks/northbooks/internal/accounts"
	"github.com/northbooks/northbooks/internal/shared"
)

// Service assembles read-only reports from posted journal movement.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) TrialBalance(ctx context.Context, asOf time.Time, typ accounts.AccountType) (TrialBalance, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	suffix := fmt.Sprintf("%s:%s", asOf.Format("2006-01-02"), typ)
	if s.cache != nil {
		if cached, ok := s.cache.GetTrialBalance(ctx, id.TenantID, suffix); ok {
			return cached, nil
		}
	}
	balances, err := s.repo.AccountTotals(ctx, id.TenantID, time.Time{}, asOf, typ)
	if err != nil {
		return TrialBalance{}, err
	}
	report := BuildTrialBalance(asOf, balances)
	if s.cache != nil {
		s.cache.SetTrialBalance(ctx, id.TenantID, suffix, report)
	}
	return report, nil
}

func (s *Service) GeneralLedger(ctx context.Context, accountID int64, from, to time.Time) (GeneralLedger, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return GeneralLedger{}, err
	}
	header, err := s.repo.AccountHeader(ctx, id.TenantID, accountID)
	if err != nil {
		return GeneralLedger{}, err
	}
	lines, err := s.repo.LedgerLines(ctx, id.TenantID, accountID, from, to)
	if err != nil {
		return GeneralLedger{}, err
	}
	return BuildGeneralLedger(header, lines), nil
}

func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	balances, err := s.repo.AccountTotals(ctx, id.TenantID, time.Time{}, asOf, "")
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(asOf, balances), nil
}

func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return IncomeStatement{}, err
	}
	balances, err := s.repo.AccountTotals(ctx, id.TenantID, from, to, "")
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(from, to, balances), nil
}
