package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/cache"
	"github.com/mkarev/suntrack/internal/config"
	"github.com/mkarev/suntrack/internal/database"
	"github.com/mkarev/suntrack/internal/enrichment"
	"github.com/mkarev/suntrack/internal/httpapi"
	"github.com/mkarev/suntrack/internal/ingest"
	"github.com/mkarev/suntrack/internal/kafka"
	"github.com/mkarev/suntrack/internal/observability"
	"github.com/mkarev/suntrack/internal/pkg/breaker"
	"github.com/mkarev/suntrack/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()

	db := database.New(pool, cfg.Tables)
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	caches, err := cache.New(cfg.ListCacheCap)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	metrics := observability.NewInmem(256)

	enricher := enrichment.NewClient(cfg.Sun.BaseURL, cfg.Sun.Timeout, logger)
	placeSvc := service.NewPlaceService(db.Places(), caches, logger, metrics)
	recordSvc := service.NewAstroRecordService(db.Records(), enricher, caches, logger, metrics)

	if cfg.Kafka.Enabled() {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Workers, 1, logger); err != nil {
			logger.Warn("ensure topic failed, consuming anyway", zap.Error(err))
		}
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.Group,
			Topic:   cfg.Kafka.Topic,
		})
		defer reader.Close()

		handler := ingest.NewHandler(recordSvc, breaker.New(cfg.Breaker), cfg.Retry, logger, metrics)
		consumer := kafka.NewConsumer(handler, reader, cfg.Kafka.Workers, logger)
		go func() {
			consumer.Start(ctx)
			consumer.Close()
		}()
	}

	srv := httpapi.New(placeSvc, recordSvc, logger, metrics)
	logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
