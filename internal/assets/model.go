package assets

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationMethod is a closed set; adding a method is a compile-time
// change, never a string comparison with a silent fallthrough.
type DepreciationMethod string

const (
	MethodStraightLine           DepreciationMethod = "STRAIGHT_LINE"
	MethodDecliningBalance       DepreciationMethod = "DECLINING_BALANCE"
	MethodDoubleDecliningBalance DepreciationMethod = "DOUBLE_DECLINING_BALANCE"
)

// ValidMethod reports whether m is a known depreciation method.
func ValidMethod(m DepreciationMethod) bool {
	switch m {
	case MethodStraightLine, MethodDecliningBalance, MethodDoubleDecliningBalance:
		return true
	}
	return false
}

// AssetStatus enumerates lifecycle states. Everything except ACTIVE is
// terminal.
type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "ACTIVE"
	AssetStatusDisposed AssetStatus = "DISPOSED"
	AssetStatusSold     AssetStatus = "SOLD"
	AssetStatusScrapped AssetStatus = "SCRAPPED"
)

// Asset is a depreciable fixed asset. AccumulatedDepreciation and
// NetBookValue are owned by the depreciation engine.
type Asset struct {
	ID                      int64
	TenantID                int64
	Code                    string
	Name                    string
	PurchaseDate            time.Time
	PurchaseValue           decimal.Decimal
	SalvageValue            decimal.Decimal
	UsefulLifeYears         int
	Method                  DepreciationMethod
	AccumulatedDepreciation decimal.Decimal
	NetBookValue            decimal.Decimal
	Status                  AssetStatus
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
