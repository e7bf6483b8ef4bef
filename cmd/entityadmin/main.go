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

	"github.com/odyssey-erp/entityadmin/internal/admin"
	"github.com/odyssey-erp/entityadmin/internal/app"
	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/internal/lookup"
	"github.com/odyssey-erp/entityadmin/internal/observability"
	"github.com/odyssey-erp/entityadmin/internal/platform/cache"
	"github.com/odyssey-erp/entityadmin/internal/platform/db"
	"github.com/odyssey-erp/entityadmin/internal/shared"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
	"github.com/odyssey-erp/entityadmin/internal/state"
	"github.com/odyssey-erp/entityadmin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var auditor entity.Auditor = shared.NopAuditLogger{}
	if cfg.AuditEnabled() {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 4})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.EnsureAuditSchema(ctx, pool); err != nil {
			logger.Error("migrate audit schema", slog.Any("error", err))
			os.Exit(1)
		}
		auditor = shared.NewAuditLogger(pool)
	} else {
		logger.Info("PG_DSN not set, audit journal disabled")
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, lookups are not cached", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	client := sqlapi.NewClient(cfg.SQLAPI(), logger, sqlapi.WithRecorder(metrics))
	entityService := entity.NewService(entity.NewRepository(client), auditor, logger)
	lookupService := lookup.NewService(client, lookup.NewCache(redisClient, cfg.LookupCacheTTL))

	store := state.NewStore(state.State{Route: admin.RouteList})
	defer store.Close()
	controller := admin.NewController(entityService, store, logger)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AdminHandler: admin.NewHandler(logger, controller, lookupService),
		JobHandler:   jobHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("sqlapi", cfg.SQLAPIBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
