package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/northbooks/northbooks/internal/shared"
)

var (
	// ErrInvalidInput indicates a malformed asset definition.
	ErrInvalidInput = errors.New("assets: invalid asset input")
	// ErrAssetNotActive indicates a terminal asset cannot transition again.
	ErrAssetNotActive = errors.New("assets: asset is not active")
)

type Service struct {
	repo  Repository
	audit shared.AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (Asset, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Asset{}, err
	}
	purchaseDate, err := time.Parse("2006-01-02", in.PurchaseDate)
	if err != nil {
		return Asset{}, ErrInvalidInput
	}
	asset := Asset{
		Name:            in.Name,
		PurchaseDate:    purchaseDate,
		PurchaseValue:   shared.Round2(in.PurchaseValue),
		SalvageValue:    shared.Round2(in.SalvageValue),
		UsefulLifeYears: in.UsefulLifeYears,
		Method:          DepreciationMethod(in.Method),
	}
	if asset.Name == "" || asset.UsefulLifeYears < 1 || !ValidMethod(asset.Method) {
		return Asset{}, ErrInvalidInput
	}
	if !asset.PurchaseValue.IsPositive() || asset.SalvageValue.IsNegative() || asset.SalvageValue.GreaterThanOrEqual(asset.PurchaseValue) {
		return Asset{}, ErrInvalidInput
	}
	code, err := s.repo.NextCode(ctx, id.TenantID)
	if err != nil {
		return Asset{}, err
	}
	asset.Code = code
	created, err := s.repo.Create(ctx, id.TenantID, asset)
	if err != nil {
		return Asset{}, err
	}
	s.record(ctx, id, shared.AuditInsert, created, nil, &created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, assetID int64, in UpdateRequest) (Asset, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Asset{}, err
	}
	current, err := s.repo.GetByID(ctx, id.TenantID, assetID)
	if err != nil {
		return Asset{}, err
	}
	next := current
	next.Name = in.Name
	updated, err := s.repo.Update(ctx, id.TenantID, next)
	if err != nil {
		return Asset{}, err
	}
	s.record(ctx, id, shared.AuditUpdate, updated, &current, &updated)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, assetID int64) (Asset, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Asset{}, err
	}
	return s.repo.GetByID(ctx, id.TenantID, assetID)
}

func (s *Service) List(ctx context.Context, status AssetStatus) ([]Asset, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, id.TenantID, status)
}

// Dispose, Sell and Scrap are one-way terminal transitions.
func (s *Service) Dispose(ctx context.Context, assetID int64) error {
	return s.retire(ctx, assetID, AssetStatusDisposed)
}

func (s *Service) Sell(ctx context.Context, assetID int64) error {
	return s.retire(ctx, assetID, AssetStatusSold)
}

func (s *Service) Scrap(ctx context.Context, assetID int64) error {
	return s.retire(ctx, assetID, AssetStatusScrapped)
}

func (s *Service) retire(ctx context.Context, assetID int64, to AssetStatus) error {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, id.TenantID, assetID)
	if err != nil {
		return err
	}
	if current.Status != AssetStatusActive {
		return ErrAssetNotActive
	}
	if err := s.repo.SetStatus(ctx, id.TenantID, assetID, AssetStatusActive, to); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return ErrAssetNotActive
		}
		return err
	}
	next := current
	next.Status = to
	s.record(ctx, id, shared.AuditUpdate, current, &current, &next)
	return nil
}

func (s *Service) record(ctx context.Context, id shared.Identity, op string, subject Asset, before, after *Asset) {
	if s.audit == nil {
		return
	}
	var beforeMap, afterMap map[string]any
	if before != nil {
		beforeMap = snapshot(*before)
	}
	if after != nil {
		afterMap = snapshot(*after)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Entity:   "asset",
		EntityID: fmt.Sprintf("%d", subject.ID),
		Op:       op,
		Before:   beforeMap,
		After:    afterMap,
		Changed:  shared.ChangedFields(beforeMap, afterMap),
		At:       s.now(),
	})
}

func snapshot(a Asset) map[string]any {
	return map[string]any{
		"code":                     a.Code,
		"name":                     a.Name,
		"purchase_value":           a.PurchaseValue.StringFixed(2),
		"salvage_value":            a.SalvageValue.StringFixed(2),
		"useful_life_years":        a.UsefulLifeYears,
		"method":                   string(a.Method),
		"accumulated_depreciation": a.AccumulatedDepreciation.StringFixed(2),
		"net_book_value":           a.NetBookValue.StringFixed(2),
		"status":                   string(a.Status),
	}
}
