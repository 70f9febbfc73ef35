package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/arenahub/arenahub/internal/app"
	"github.com/arenahub/arenahub/internal/observability"
	"github.com/arenahub/arenahub/internal/platform/db"
	"github.com/arenahub/arenahub/internal/shared"
	"github.com/arenahub/arenahub/jobs"
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

	logger := app.NewLogger(cfg, "worker")

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	mailer := jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	instrumented := func(task string, h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			err := h(ctx, t)
			metrics.RecordJob(task, err)
			return err
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: instrumented(jobs.TaskTypeSendEmail, jobs.NewSendEmailHandler(logger, mailer))},
			{Type: jobs.TaskTypeSessionCleanup, Handler: instrumented(jobs.TaskTypeSessionCleanup, jobs.NewSessionCleanupHandler(logger, pool))},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: instrumented(jobs.TaskTypeIdempotencyCleanup, jobs.NewIdempotencyCleanupHandler(logger, idempotencyStore))},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: jobs.NewSessionCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
