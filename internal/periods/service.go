package periods

import (
	"context"
	"errors"
	"time"

	"github.com/northbooks/northbooks/internal/shared"
)

// ErrInvalidWindow indicates start/end dates are missing or inverted.
var ErrInvalidWindow = errors.New("periods: invalid period window")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput describes a new fiscal period.
type CreateInput struct {
	Code      string
	StartDate time.Time
	EndDate   time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Period{}, err
	}
	if in.Code == "" || in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return Period{}, ErrInvalidWindow
	}
	return s.repo.Create(ctx, id.TenantID, Period{
		Code:      in.Code,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	})
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID)
}

// FindForDate buckets a transaction date into its fiscal period.
func (s *Service) FindForDate(ctx context.Context, date time.Time) (Period, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Period{}, err
	}
	return s.repo.FindForDate(ctx, id.TenantID, date)
}

func (s *Service) Close(ctx context.Context, periodID int64) error {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return err
	}
	return s.repo.Close(ctx, id.TenantID, periodID)
}
