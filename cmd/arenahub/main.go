package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/arenahub/arenahub/internal/app"
	"github.com/arenahub/arenahub/internal/auth"
	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/blog"
	"github.com/arenahub/arenahub/internal/events"
	"github.com/arenahub/arenahub/internal/forums"
	"github.com/arenahub/arenahub/internal/notify"
	"github.com/arenahub/arenahub/internal/observability"
	"github.com/arenahub/arenahub/internal/payments"
	"github.com/arenahub/arenahub/internal/platform/cache"
	"github.com/arenahub/arenahub/internal/platform/db"
	"github.com/arenahub/arenahub/internal/platform/storage"
	"github.com/arenahub/arenahub/internal/shared"
	"github.com/arenahub/arenahub/internal/teams"
	"github.com/arenahub/arenahub/internal/tournaments"
	"github.com/arenahub/arenahub/internal/uploads"
	"github.com/arenahub/arenahub/internal/users"
	"github.com/arenahub/arenahub/internal/view"
	"github.com/arenahub/arenahub/jobs"
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

	logger := app.NewLogger(cfg, "api")

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "arenahub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	notifier := notify.NewPublisher(logger, redisClient)

	rolesService := authz.NewService(authz.NewRepository(dbpool))
	guard := authz.NewGuard(
		authz.BearerResolver{Sessions: sessionManager},
		authz.CookieResolver{Sessions: sessionManager},
		rolesService,
		logger,
	)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(dbpool), rolesService)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, guard, jobsClient)

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rolesService, guard)

	teamsService := teams.NewService(teams.NewRepository(dbpool), notifier, auditLogger)
	teamsHandler := teams.NewHandler(logger, teamsService, guard)

	eventsService := events.NewService(events.NewRepository(dbpool), notifier, auditLogger)
	eventsHandler := events.NewHandler(logger, eventsService, guard)

	tournamentsService := tournaments.NewService(tournaments.NewRepository(dbpool), auditLogger)
	tournamentsHandler := tournaments.NewHandler(logger, tournamentsService, guard)

	forumsService := forums.NewService(forums.NewRepository(dbpool), auditLogger)
	forumsHandler := forums.NewHandler(logger, forumsService, guard)

	blogService := blog.NewService(blog.NewRepository(dbpool), auditLogger)
	blogHandler := blog.NewHandler(logger, blogService, guard)

	objectStore, err := storage.NewClient(ctx, storage.Config{
		Endpoint:  cfg.StorageEndpoint,
		Region:    cfg.StorageRegion,
		Bucket:    cfg.StorageBucket,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		logger.Error("configure object storage", slog.Any("error", err))
		os.Exit(1)
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn("ensure upload bucket", slog.Any("error", err))
	}
	uploadsService := uploads.NewService(logger, objectStore, uploads.NewRepository(dbpool))
	uploadsHandler := uploads.NewHandler(logger, uploadsService, guard)

	paymentsHandler := payments.NewHandler(logger, payments.NewRepository(dbpool), guard, cfg.StripeWebhookSecret)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		TeamsHandler:       teamsHandler,
		EventsHandler:      eventsHandler,
		TournamentsHandler: tournamentsHandler,
		ForumsHandler:      forumsHandler,
		BlogHandler:        blogHandler,
		UploadsHandler:     uploadsHandler,
		PaymentsHandler:    paymentsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
