package accounts

// CreateRequest carries fields for a new account.
type CreateRequest struct {
	Code        string `json:"code" validate:"required,max=32"`
	NameEN      string `json:"name_en" validate:"required,max=255"`
	NameAR      string `json:"name_ar" validate:"max=255"`
	Type        string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	BalanceSide string `json:"balance_side" validate:"required,oneof=DEBIT CREDIT"`
	ParentID    *int64 `json:"parent_id"`
}

// UpdateRequest carries mutable account fields; the code is immutable.
type UpdateRequest struct {
	NameEN   string `json:"name_en" validate:"required,max=255"`
	NameAR   string `json:"name_ar" validate:"max=255"`
	ParentID *int64 `json:"parent_id"`
}

// AccountResponse is the JSON shape for a single account.
type AccountResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	NameEN      string `json:"name_en"`
	NameAR      string `json:"name_ar"`
	Type        string `json:"type"`
	BalanceSide string `json:"balance_side"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	IsActive    bool   `json:"is_active"`
	Level       int    `json:"level,omitempty"`
}

func toResponse(a Account, level int) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Code:        a.Code,
		NameEN:      a.NameEN,
		NameAR:      a.NameAR,
		Type:        string(a.Type),
		BalanceSide: string(a.BalanceSide),
		ParentID:    a.ParentID,
		IsActive:    a.IsActive,
		Level:       level,
	}
}
