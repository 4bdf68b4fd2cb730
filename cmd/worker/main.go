package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/config"
	"sitemaster/internal/mqhandler"
	"sitemaster/internal/repository"
	"sitemaster/internal/service/earned"
	"sitemaster/internal/service/project"
	"sitemaster/internal/service/schedule"
	"sitemaster/pkg/db"
	pkglogger "sitemaster/pkg/logger"
	"sitemaster/pkg/mq"
	"sitemaster/pkg/otel"
	"sitemaster/pkg/outbox"
	redisclient "sitemaster/pkg/redis"
	"sitemaster/pkg/util"
)

const serviceName = "sitemaster-worker"

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

	logger.Info("Starting worker service...", zap.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb, err := redisclient.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	// DLQ 通过 publisher 发送
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	dedupTTL := cfg.Worker.DedupTTL
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}

	projectService := project.NewService(project.Deps{
		Tx:        repository.NewStore(dbConn, logger),
		Projects:  repository.NewProjectRepository(dbConn, logger),
		Tasks:     repository.NewTaskRepository(dbConn, logger),
		Documents: repository.NewDocumentRepository(dbConn, logger),
		History:   repository.NewHistoryRepository(dbConn, logger),
		Events:    repository.NewEventRepository(outbox.NewRepository(dbConn), logger),
		Cache:     schedule.NewInvalidator(schedule.NewRedisCache(rdb), logger),
		Logger:    logger,
	})
	earnedService := earned.NewService(projectService, repository.NewSnapshotRepository(dbConn, logger), logger)

	snapshotHandler := mqhandler.NewSnapshotHandler(
		earnedService,
		util.NewDeduper(rdb, dedupTTL, logger),
		util.NewRetryCounter(rdb, dedupTTL),
		publisher,
		cfg.Worker.MaxRetries,
		logger,
	)

	routes := []struct {
		routingKey string
		handle     mq.MessageHandler
	}{
		{mqcontracts.RoutingProjectChanged, snapshotHandler.HandleProjectChanged},
		{mqcontracts.RoutingTaskChanged, snapshotHandler.HandleTaskChanged},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range routes {
		queue := mq.QueueName(r.routingKey)
		logger.Info("Initializing consumer", zap.String("queue", queue), zap.String("routing_key", r.routingKey))

		consumer, err := mq.NewConsumer(cfg.MQ.URL, queue, r.routingKey, logger)
		if err != nil {
			logger.Fatal("failed to init consumer", zap.String("queue", queue), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(r.handle)

		g.Go(func() error {
			return consumer.StartConsuming(gctx)
		})
	}

	logger.Info("Worker service started, waiting for messages...")

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", zap.Error(err))
		return
	}
	logger.Info("Worker service stopped")
}
