package audit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

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

// MountRoutes attaches audit trail endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RecordResponse is the JSON shape of one audit record.
type RecordResponse struct {
	ID       string          `json:"id"`
	ActorID  int64           `json:"actor_id"`
	Entity   string          `json:"entity"`
	EntityID string          `json:"entity_id"`
	Op       string          `json:"op"`
	Before   json.RawMessage `json:"before,omitempty"`
	After    json.RawMessage `json:"after,omitempty"`
	Changed  []string        `json:"changed,omitempty"`
	At       time.Time       `json:"at"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	records, err := h.service.List(r.Context(), f)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, RecordResponse{
			ID:       rec.ID.String(),
			ActorID:  rec.ActorID,
			Entity:   rec.Entity,
			EntityID: rec.EntityID,
			Op:       rec.Op,
			Before:   rec.Before,
			After:    rec.After,
			Changed:  rec.Changed,
			At:       rec.At,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func parseFilters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	f := Filters{
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Op:       q.Get("op"),
	}
	for name, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		if raw := q.Get(name); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil {
				return Filters{}, errors.New(name + " must be numeric")
			}
			*dst = val
		}
	}
	if raw := q.Get("actor_id"); raw != "" {
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filters{}, errors.New("actor_id must be numeric")
		}
		f.ActorID = actorID
	}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if raw := q.Get(name); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return Filters{}, errors.New(name + " must be RFC3339")
			}
			*dst = parsed
		}
	}
	return f, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNoTenant):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		h.logger.Error("audit handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
