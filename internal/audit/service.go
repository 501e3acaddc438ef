package audit

import (
	"context"

	"github.com/northbooks/northbooks/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service answers audit trail queries scoped to the caller's tenant.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filters) ([]Record, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return s.repo.List(ctx, id.TenantID, f)
}
