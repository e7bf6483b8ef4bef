package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/entityadmin/internal/app"
	jobmetrics "github.com/odyssey-erp/entityadmin/internal/jobs"
	"github.com/odyssey-erp/entityadmin/internal/lookup"
	"github.com/odyssey-erp/entityadmin/internal/observability"
	"github.com/odyssey-erp/entityadmin/internal/platform/cache"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
	"github.com/odyssey-erp/entityadmin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil || redisClient == nil {
		logger.Error("worker requires redis", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	client := sqlapi.NewClient(cfg.SQLAPI(), logger, sqlapi.WithRecorder(metrics))
	lookupService := lookup.NewService(client, lookup.NewCache(redisClient, cfg.LookupCacheTTL))
	warmupJob := jobs.NewLookupWarmupJob(lookupService, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLookupWarmup, Handler: warmupJob.Handle},
		},
		Cron: cronEntries(cfg, logger),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr), slog.String("warmup_cron", cfg.LookupWarmupCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func cronEntries(cfg *app.Config, logger *slog.Logger) []jobs.CronRegistration {
	if cfg.LookupWarmupCron == "" {
		return nil
	}
	task, err := jobs.NewLookupWarmupTask("scheduled")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		return nil
	}
	return []jobs.CronRegistration{
		{Spec: cfg.LookupWarmupCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}},
	}
}
