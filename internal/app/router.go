package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/northbooks/northbooks/internal/accounts"
	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/audit"
	"github.com/northbooks/northbooks/internal/depreciation"
	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/payments"
	"github.com/northbooks/northbooks/internal/periods"
	"github.com/northbooks/northbooks/internal/reports"
	"github.com/northbooks/northbooks/internal/tax"
	"github.com/northbooks/northbooks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AccountsHandler     *accounts.Handler
	JournalsHandler     *journals.Handler
	AssetsHandler       *assets.Handler
	DepreciationHandler *depreciation.Handler
	InvoicesHandler     *invoices.Handler
	PaymentsHandler     *payments.Handler
	TaxHandler          *tax.Handler
	ReportsHandler      *reports.Handler
	PeriodsHandler      *periods.Handler
	AuditHandler        *audit.Handler
	JobsHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with the shared middleware chain and
// every module mounted under /api/v1.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Job endpoints sit outside the tenant identity chain; they are
	// operator surfaces, not tenant data.
	r.Route("/jobs", params.JobsHandler.MountRoutes)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(IdentityMiddleware(params.Logger))

		api.Route("/accounts", params.AccountsHandler.MountRoutes)
		api.Route("/journals", params.JournalsHandler.MountRoutes)
		api.Route("/assets", params.AssetsHandler.MountRoutes)
		api.Route("/depreciation-runs", params.DepreciationHandler.MountRoutes)
		api.Route("/invoices", params.InvoicesHandler.MountRoutes)
		api.Route("/payments", params.PaymentsHandler.MountRoutes)
		api.Route("/tax-transactions", params.TaxHandler.MountRoutes)
		api.Route("/reports", params.ReportsHandler.MountRoutes)
		api.Route("/periods", params.PeriodsHandler.MountRoutes)
		api.Route("/audit-logs", params.AuditHandler.MountRoutes)
	})

	return r
}
