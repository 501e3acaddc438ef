package accounts

import "time"

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// BalanceSide tells which side increases the account.
type BalanceSide string

const (
	BalanceSideDebit  BalanceSide = "DEBIT"
	BalanceSideCredit BalanceSide = "CREDIT"
)

// Account models a chart of accounts node. Accounts are never deleted;
// deactivation preserves historical journal references.
type Account struct {
	ID          int64
	TenantID    int64
	Code        string
	NameEN      string
	NameAR      string
	Type        AccountType
	BalanceSide BalanceSide
	ParentID    *int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TreeNode is an account flattened out of the hierarchy with its depth.
type TreeNode struct {
	Account
	Level int
}

func validType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

func validSide(s BalanceSide) bool {
	return s == BalanceSideDebit || s == BalanceSideCredit
}
