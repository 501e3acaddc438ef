package assets

import "github.com/shopspring/decimal"

// CreateRequest carries fields for registering a new asset.
type CreateRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	PurchaseDate    string          `json:"purchase_date" validate:"required"`
	PurchaseValue   decimal.Decimal `json:"purchase_value" validate:"required"`
	SalvageValue    decimal.Decimal `json:"salvage_value"`
	UsefulLifeYears int             `json:"useful_life_years" validate:"required,min=1,max=100"`
	Method          string          `json:"method" validate:"required,oneof=STRAIGHT_LINE DECLINING_BALANCE DOUBLE_DECLINING_BALANCE"`
}

// UpdateRequest carries descriptive fields; financial fields are immutable
// after creation.
type UpdateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// AssetResponse is the JSON shape for a single asset.
type AssetResponse struct {
	ID                      int64  `json:"id"`
	Code                    string `json:"code"`
	Name                    string `json:"name"`
	PurchaseDate            string `json:"purchase_date"`
	PurchaseValue           string `json:"purchase_value"`
	SalvageValue            string `json:"salvage_value"`
	UsefulLifeYears         int    `json:"useful_life_years"`
	Method                  string `json:"method"`
	AccumulatedDepreciation string `json:"accumulated_depreciation"`
	NetBookValue            string `json:"net_book_value"`
	Status                  string `json:"status"`
}

func toResponse(a Asset) AssetResponse {
	return AssetResponse{
		ID:                      a.ID,
		Code:                    a.Code,
		Name:                    a.Name,
		PurchaseDate:            a.PurchaseDate.Format("2006-01-02"),
		PurchaseValue:           a.PurchaseValue.StringFixed(2),
		SalvageValue:            a.SalvageValue.StringFixed(2),
		UsefulLifeYears:         a.UsefulLifeYears,
		Method:                  string(a.Method),
		AccumulatedDepreciation: a.AccumulatedDepreciation.StringFixed(2),
		NetBookValue:            a.NetBookValue.StringFixed(2),
		Status:                  string(a.Status),
	}
}
