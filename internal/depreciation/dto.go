package depreciation

import "errors"

var (
	// ErrNoEligibleAssets indicates a calculation request matched no active assets.
	ErrNoEligibleAssets = errors.New("depreciation: no eligible assets")
	// ErrAlreadyPosted indicates the run has been posted and is immutable.
	ErrAlreadyPosted = errors.New("depreciation: run already posted")
	// ErrCannotDeletePosted indicates deletion of a posted run was requested.
	ErrCannotDeletePosted = errors.New("depreciation: cannot delete posted run")
	// ErrNoDefaultAccounts indicates the tenant has not configured the
	// depreciation expense and accumulated depreciation accounts.
	ErrNoDefaultAccounts = errors.New("depreciation: default accounts not configured")
	// ErrInvalidInput indicates a malformed calculation request.
	ErrInvalidInput = errors.New("depreciation: invalid input")
)

// CalculateRequest selects the assets and as-of date for a run.
type CalculateRequest struct {
	AsOfDate string  `json:"as_of_date" validate:"required"`
	AssetIDs []int64 `json:"asset_ids"`
}

// LineResponse is the JSON shape of one run line.
type LineResponse struct {
	ID                int64  `json:"id"`
	AssetID           int64  `json:"asset_id"`
	Amount            string `json:"amount"`
	AccumulatedBefore string `json:"accumulated_before"`
	AccumulatedAfter  string `json:"accumulated_after"`
	NetBookBefore     string `json:"net_book_before"`
	NetBookAfter      string `json:"net_book_after"`
}

// RunResponse is the JSON shape of a depreciation run.
type RunResponse struct {
	ID                int64          `json:"id"`
	Number            string         `json:"number"`
	RunDate           string         `json:"run_date"`
	PeriodStart       string         `json:"period_start"`
	PeriodEnd         string         `json:"period_end"`
	Status            string         `json:"status"`
	TotalDepreciation string         `json:"total_depreciation"`
	JournalID         *int64         `json:"journal_id,omitempty"`
	Lines             []LineResponse `json:"lines,omitempty"`
}

func toRunResponse(run Run) RunResponse {
	out := RunResponse{
		ID:                run.ID,
		Number:            run.Number,
		RunDate:           run.RunDate.Format("2006-01-02"),
		PeriodStart:       run.PeriodStart.Format("2006-01-02"),
		PeriodEnd:         run.PeriodEnd.Format("2006-01-02"),
		Status:            string(run.Status),
		TotalDepreciation: run.TotalDepreciation.StringFixed(2),
		JournalID:         run.JournalID,
	}
	for _, line := range run.Lines {
		out.Lines = append(out.Lines, LineResponse{
			ID:                line.ID,
			AssetID:           line.AssetID,
			Amount:            line.Amount.StringFixed(2),
			AccumulatedBefore: line.AccumulatedBefore.StringFixed(2),
			AccumulatedAfter:  line.AccumulatedAfter.StringFixed(2),
			NetBookBefore:     line.NetBookBefore.StringFixed(2),
			NetBookAfter:      line.NetBookAfter.StringFixed(2),
		})
	}
	return out
}
