package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/northbooks/northbooks/internal/accounts"
	"github.com/northbooks/northbooks/internal/app"
	"github.com/northbooks/northbooks/internal/assets"
	"github.com/northbooks/northbooks/internal/audit"
	"github.com/northbooks/northbooks/internal/depreciation"
	"github.com/northbooks/northbooks/internal/invoices"
	"github.com/northbooks/northbooks/internal/journals"
	"github.com/northbooks/northbooks/internal/payments"
	"github.com/northbooks/northbooks/internal/periods"
	"github.com/northbooks/northbooks/internal/platform/cache"
	"github.com/northbooks/northbooks/internal/platform/db"
	"github.com/northbooks/northbooks/internal/reports"
	"github.com/northbooks/northbooks/internal/shared"
	"github.com/northbooks/northbooks/internal/tax"
	"github.com/northbooks/northbooks/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, auditLogger)

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)
	journalsService.WithPostListener(reportsCache)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo)

	assetsRepo := assets.NewRepository(pool)
	assetsService := assets.NewService(assetsRepo, auditLogger)

	depreciationRepo := depreciation.NewRepository(pool)
	depreciationService := depreciation.NewService(depreciationRepo, journalsService, auditLogger)

	taxRepo := tax.NewRepository(pool)
	taxService := tax.NewService(taxRepo, periodsRepo)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, journalsService, taxService, auditLogger, logger)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, journalsService, auditLogger, logger)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AccountsHandler:     accounts.NewHandler(logger, accountsService),
		JournalsHandler:     journals.NewHandler(logger, journalsService),
		AssetsHandler:       assets.NewHandler(logger, assetsService),
		DepreciationHandler: depreciation.NewHandler(logger, depreciationService),
		InvoicesHandler:     invoices.NewHandler(logger, invoicesService),
		PaymentsHandler:     payments.NewHandler(logger, paymentsService),
		TaxHandler:          tax.NewHandler(logger, taxService),
		ReportsHandler:      reports.NewHandler(logger, reportsService),
		PeriodsHandler:      periods.NewHandler(logger, periodsService),
		AuditHandler:        audit.NewHandler(logger, auditService),
		JobsHandler:         jobs.NewHandler(inspector, jobsClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
