package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/northbooks/northbooks/internal/shared"
)

var (
	// ErrInvalidParent indicates the parent is missing, inactive, belongs to
	// another tenant, or would create a cycle.
	ErrInvalidParent = errors.New("accounts: invalid parent account")
	// ErrAccountInUse indicates the account has journal lines in an open
	// fiscal period and cannot be deactivated yet.
	ErrAccountInUse = errors.New("accounts: account has activity in an open period")
	// ErrInvalidInput indicates a malformed type or balance side.
	ErrInvalidInput = errors.New("accounts: invalid account input")
)

type Service struct {
	repo  Repository
	audit shared.AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (Account, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	acc := Account{
		Code:        in.Code,
		NameEN:      in.NameEN,
		NameAR:      in.NameAR,
		Type:        AccountType(in.Type),
		BalanceSide: BalanceSide(in.BalanceSide),
		ParentID:    in.ParentID,
	}
	if acc.Code == "" || acc.NameEN == "" || !validType(acc.Type) || !validSide(acc.BalanceSide) {
		return Account{}, ErrInvalidInput
	}
	if acc.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, id.TenantID, *acc.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return Account{}, ErrInvalidParent
			}
			return Account{}, err
		}
		if !parent.IsActive {
			return Account{}, ErrInvalidParent
		}
	}
	created, err := s.repo.Create(ctx, id.TenantID, acc)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, id, shared.AuditInsert, created, nil, &created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, accountID int64, in UpdateRequest) (Account, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	current, err := s.repo.GetByID(ctx, id.TenantID, accountID)
	if err != nil {
		return Account{}, err
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, id.TenantID, accountID, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	next := current
	next.NameEN = in.NameEN
	next.NameAR = in.NameAR
	next.ParentID = in.ParentID
	updated, err := s.repo.Update(ctx, id.TenantID, next)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, id, shared.AuditUpdate, updated, &current, &updated)
	return updated, nil
}

// Deactivate soft-disables the account. Accounts are never deleted so
// historical journal lines keep a valid reference.
func (s *Service) Deactivate(ctx context.Context, accountID int64) error {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, id.TenantID, accountID)
	if err != nil {
		return err
	}
	inUse, err := s.repo.HasLinesInOpenPeriod(ctx, id.TenantID, accountID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrAccountInUse
	}
	if err := s.repo.SetActive(ctx, id.TenantID, accountID, false); err != nil {
		return err
	}
	next := current
	next.IsActive = false
	s.record(ctx, id, shared.AuditUpdate, current, &current, &next)
	return nil
}

func (s *Service) Get(ctx context.Context, accountID int64) (Account, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	return s.repo.GetByID(ctx, id.TenantID, accountID)
}

// ListTree returns the chart of accounts flattened parent-before-child with
// each node's depth. Siblings order by code; when lang is "ar" they order by
// the Arabic name using ICU collation.
func (s *Service) ListTree(ctx context.Context, lang string) ([]TreeNode, error) {
	id, err := shared.IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	return flatten(all, lang), nil
}

// checkParent walks the candidate parent's ancestor chain; hitting the
// account itself means the reassignment would create a cycle.
func (s *Service) checkParent(ctx context.Context, tenantID, accountID, parentID int64) error {
	if parentID == accountID {
		return ErrInvalidParent
	}
	seen := map[int64]bool{accountID: true}
	cursor := parentID
	for {
		parent, err := s.repo.GetByID(ctx, tenantID, cursor)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ErrInvalidParent
			}
			return err
		}
		if !parent.IsActive {
			return ErrInvalidParent
		}
		if seen[parent.ID] {
			return ErrInvalidParent
		}
		seen[parent.ID] = true
		if parent.ParentID == nil {
			return nil
		}
		cursor = *parent.ParentID
	}
}

func flatten(all []Account, lang string) []TreeNode {
	children := make(map[int64][]Account)
	var roots []Account
	byID := make(map[int64]Account, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	for _, a := range all {
		if a.ParentID != nil {
			if _, ok := byID[*a.ParentID]; ok {
				children[*a.ParentID] = append(children[*a.ParentID], a)
				continue
			}
		}
		roots = append(roots, a)
	}
	sortSiblings := func(list []Account) {
		if lang == "ar" {
			coll := collate.New(language.Arabic)
			sort.SliceStable(list, func(i, j int) bool {
				return coll.CompareString(list[i].NameAR, list[j].NameAR) < 0
			})
			return
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}
	sortSiblings(roots)
	for _, list := range children {
		sortSiblings(list)
	}

	out := make([]TreeNode, 0, len(all))
	var walk func(a Account, level int)
	walk = func(a Account, level int) {
		out = append(out, TreeNode{Account: a, Level: level})
		for _, child := range children[a.ID] {
			walk(child, level+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return out
}

func (s *Service) record(ctx context.Context, id shared.Identity, op string, subject Account, before, after *Account) {
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
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", subject.ID),
		Op:       op,
		Before:   beforeMap,
		After:    afterMap,
		Changed:  shared.ChangedFields(beforeMap, afterMap),
		At:       s.now(),
	})
}

func snapshot(a Account) map[string]any {
	return map[string]any{
		"code":         a.Code,
		"name_en":      a.NameEN,
		"name_ar":      a.NameAR,
		"type":         string(a.Type),
		"balance_side": string(a.BalanceSide),
		"parent_id":    a.ParentID,
		"is_active":    a.IsActive,
	}
}
