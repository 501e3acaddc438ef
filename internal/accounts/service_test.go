package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northbooks/northbooks/internal/shared"
)

type memoryAccountRepo struct {
	accounts map[int64]Account
	nextID   int64
	inUse    map[int64]bool
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{
		accounts: make(map[int64]Account),
		inUse:    make(map[int64]bool),
	}
}

func (r *memoryAccountRepo) add(id int64, code string, parentID *int64, active bool) {
	r.accounts[id] = Account{
		ID:          id,
		TenantID:    1,
		Code:        code,
		NameEN:      "Account " + code,
		Type:        AccountTypeAsset,
		BalanceSide: BalanceSideDebit,
		ParentID:    parentID,
		IsActive:    active,
	}
	if id > r.nextID {
		r.nextID = id
	}
}

func (r *memoryAccountRepo) Create(ctx context.Context, tenantID int64, a Account) (Account, error) {
	for _, existing := range r.accounts {
		if existing.TenantID == tenantID && existing.Code == a.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	r.nextID++
	a.ID = r.nextID
	a.TenantID = tenantID
	a.IsActive = true
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryAccountRepo) Update(ctx context.Context, tenantID int64, a Account) (Account, error) {
	current, ok := r.accounts[a.ID]
	if !ok || current.TenantID != tenantID {
		return Account{}, shared.ErrNotFound
	}
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memoryAccountRepo) GetByID(ctx context.Context, tenantID, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *memoryAccountRepo) List(ctx context.Context, tenantID int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) SetActive(ctx context.Context, tenantID, id int64, active bool) error {
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return shared.ErrNotFound
	}
	a.IsActive = active
	r.accounts[id] = a
	return nil
}

func (r *memoryAccountRepo) HasLinesInOpenPeriod(ctx context.Context, tenantID, accountID int64) (bool, error) {
	return r.inUse[accountID], nil
}

func testCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{TenantID: 1, UserID: 7})
}

func assetRequest(code string) CreateRequest {
	return CreateRequest{
		Code:        code,
		NameEN:      "Account " + code,
		Type:        string(AccountTypeAsset),
		BalanceSide: string(BalanceSideDebit),
	}
}

func ptr(v int64) *int64 { return &v }

func TestCreateRejectsDuplicateCode(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)

	first, err := svc.Create(testCtx(), assetRequest("1000"))
	require.NoError(t, err)
	require.True(t, first.IsActive)

	_, err = svc.Create(testCtx(), assetRequest("1000"))
	require.ErrorIs(t, err, ErrDuplicateCode)
	require.Len(t, repo.accounts, 1)
}

func TestCreateRejectsMissingOrInactiveParent(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.add(1, "1000", nil, false)
	svc := NewService(repo, nil)

	in := assetRequest("1100")
	in.ParentID = ptr(99)
	_, err := svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidParent)

	in.ParentID = ptr(1)
	_, err = svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidParent)
}

func TestCreateRejectsUnknownTypeOrSide(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)

	in := assetRequest("1000")
	in.Type = "CONTRA"
	_, err := svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidInput)

	in = assetRequest("1000")
	in.BalanceSide = "BOTH"
	_, err = svc.Create(testCtx(), in)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.add(1, "1000", nil, true)
	svc := NewService(repo, nil)

	_, err := svc.Update(testCtx(), 1, UpdateRequest{NameEN: "Cash", ParentID: ptr(1)})
	require.ErrorIs(t, err, ErrInvalidParent)
}

func TestUpdateRejectsAncestryCycle(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.add(1, "1000", nil, true)
	repo.add(2, "1100", ptr(1), true)
	repo.add(3, "1110", ptr(2), true)
	svc := NewService(repo, nil)

	// Reparenting the root under its grandchild closes the loop.
	_, err := svc.Update(testCtx(), 1, UpdateRequest{NameEN: "Current Assets", ParentID: ptr(3)})
	require.ErrorIs(t, err, ErrInvalidParent)

	// A sibling move within the same chain stays legal.
	updated, err := svc.Update(testCtx(), 3, UpdateRequest{NameEN: "Petty Cash", ParentID: ptr(1)})
	require.NoError(t, err)
	require.Equal(t, int64(1), *updated.ParentID)
}

func TestDeactivateRejectsAccountWithOpenActivity(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.add(1, "1000", nil, true)
	repo.inUse[1] = true
	svc := NewService(repo, nil)

	err := svc.Deactivate(testCtx(), 1)
	require.ErrorIs(t, err, ErrAccountInUse)
	require.True(t, repo.accounts[1].IsActive)

	repo.inUse[1] = false
	require.NoError(t, svc.Deactivate(testCtx(), 1))
	require.False(t, repo.accounts[1].IsActive)
}

func TestListTreeFlattensParentBeforeChild(t *testing.T) {
	repo := newMemoryAccountRepo()
	repo.add(1, "2000", nil, true)
	repo.add(2, "1000", nil, true)
	repo.add(3, "1100", ptr(2), true)
	svc := NewService(repo, nil)

	nodes, err := svc.ListTree(testCtx(), "")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.Equal(t, "1000", nodes[0].Code)
	require.Equal(t, 0, nodes[0].Level)
	require.Equal(t, "1100", nodes[1].Code)
	require.Equal(t, 1, nodes[1].Level)
	require.Equal(t, "2000", nodes[2].Code)
	require.Equal(t, 0, nodes[2].Level)
}
