package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitemaster/internal/config"
	"sitemaster/internal/handler"
	"sitemaster/internal/httpserver"
	"sitemaster/internal/repository"
	sched "sitemaster/internal/schedule"
	"sitemaster/internal/service/earned"
	"sitemaster/internal/service/project"
	"sitemaster/internal/service/schedule"
	"sitemaster/pkg/db"
	pkglogger "sitemaster/pkg/logger"
	"sitemaster/pkg/mq"
	"sitemaster/pkg/otel"
	"sitemaster/pkg/outbox"
	redisclient "sitemaster/pkg/redis"
)

const serviceName = "sitemaster-api"

var version = "dev"

func main() {
	cfg := config.Load()

	logger := pkglogger.NewLoggerFromConfig(cfg.Log)
	defer logger.Sync()

	shutdownOTel, err := otel.Init(otel.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
	}, logger)
	if err != nil {
		logger.Fatal("OpenTelemetry initialization failed", zap.Error(err))
	}
	defer shutdownOTel()

	// LoadFrom 已经校验过时区
	loc, _ := cfg.Schedule.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, logger); err != nil {
		logger.Fatal("DB migration failed", zap.Error(err))
	}

	// Init Redis
	rdb, err := redisclient.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	// Init RabbitMQ Publisher (outbox dispatcher 使用)
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Init Repositories
	store := repository.NewStore(dbConn, logger)
	outboxRepo := outbox.NewRepository(dbConn)
	viewCache := schedule.NewRedisCache(rdb)

	// Init Services
	projectService := project.NewService(project.Deps{
		Tx:        store,
		Projects:  repository.NewProjectRepository(dbConn, logger),
		Tasks:     repository.NewTaskRepository(dbConn, logger),
		Documents: repository.NewDocumentRepository(dbConn, logger),
		History:   repository.NewHistoryRepository(dbConn, logger),
		Events:    repository.NewEventRepository(outboxRepo, logger),
		Cache:     schedule.NewInvalidator(viewCache, logger),
		Logger:    logger,
	})
	scheduleService := schedule.NewService(
		projectService,
		sched.NewResolver(sched.WithLocation(loc)),
		logger,
		schedule.WithCache(viewCache, cfg.Schedule.CacheTTL),
	)
	earnedService := earned.NewService(projectService, repository.NewSnapshotRepository(dbConn, logger), logger)

	// Init Handlers
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("failed to register validators", zap.Error(err))
	}
	router := httpserver.NewRouter(httpserver.Deps{
		Projects:        handler.NewProjectHandler(projectService, logger),
		Schedule:        handler.NewScheduleHandler(scheduleService, earnedService, logger),
		JWTSecret:       cfg.JWT.Secret,
		DB:              store,
		Broker:          publisher,
		ServiceName:     serviceName,
		ImportPerMinute: cfg.RateLimit.ImportPerMinute,
		ImportBurst:     cfg.RateLimit.ImportBurst,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return dispatcher.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("API server stopped with error", zap.Error(err))
		return
	}
	logger.Info("API server stopped")
}
