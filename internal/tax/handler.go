package tax

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/northbooks/northbooks/internal/periods"
	"github.com/northbooks/northbooks/internal/platform/httpx"
	"github.com/northbooks/northbooks/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches tax transaction endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// TransactionResponse is the JSON shape of a derived tax transaction.
type TransactionResponse struct {
	ID            int64  `json:"id"`
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	TaxCode       string `json:"tax_code"`
	Direction     string `json:"direction"`
	TaxableAmount string `json:"taxable_amount"`
	TaxAmount     string `json:"tax_amount"`
	Date          string `json:"date"`
	PeriodID      int64  `json:"period_id"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	txs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionResponse{
			ID:            t.ID,
			InvoiceID:     t.InvoiceID,
			InvoiceNumber: t.InvoiceNumber,
			TaxCode:       t.TaxCode,
			Direction:     string(t.Direction),
			TaxableAmount: t.TaxableAmount.StringFixed(2),
			TaxAmount:     t.TaxAmount.StringFixed(2),
			Date:          t.Date.Format("2006-01-02"),
			PeriodID:      t.PeriodID,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{
		TaxCode:   q.Get("tax_code"),
		Direction: Direction(q.Get("direction")),
	}
	if raw := q.Get("period_id"); raw != "" {
		periodID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ListFilter{}, errors.New("period_id must be numeric")
		}
		filter.PeriodID = periodID
	}
	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(name); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return ListFilter{}, errors.New(name + " must be YYYY-MM-DD")
			}
			*dst = parsed
		}
	}
	return filter, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, periods.ErrNoFiscalPeriod):
		httpx.Problem(w, http.StatusPreconditionFailed, "Dependency Unavailable", err.Error())
	case errors.Is(err, shared.ErrNoTenant):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		h.logger.Error("tax handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
