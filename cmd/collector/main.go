package main

import (
	"context"
	"log"

	"github.com/muhammadchandra19/price-rollup/internal/bootstrap"
	"github.com/muhammadchandra19/price-rollup/internal/config"
	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/infrastructure/coinmarketcap"
	kafkarollup "github.com/muhammadchandra19/price-rollup/internal/infrastructure/kafka/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/observability"
	"github.com/muhammadchandra19/price-rollup/pkg/app"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewFromConfig(cfg.App.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := run(context.Background(), cfg, appLogger); err != nil {
		appLogger.Error(errors.TracerFromError(err), logger.Field{Key: "app", Value: cfg.App.Name})
		_ = appLogger.Sync()
		log.Fatalf("Collector exited: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger logger.Interface) error {
	repo, closeSeries, err := bootstrap.OpenSeries(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeSeries()

	if err := bootstrap.PrepareSeries(ctx, repo, cfg.Keys(), cfg.Store.ResetOnStart, appLogger); err != nil {
		return err
	}

	source, err := coinmarketcap.NewClient(cfg.Price, appLogger)
	if err != nil {
		return err
	}

	var publisher rollup.Publisher
	if cfg.RollupKafka.Enabled {
		publisher = kafkarollup.NewPublisher(cfg.RollupKafka, cfg.Store.Prefix, appLogger)
		defer func() {
			if err := publisher.Close(); err != nil {
				appLogger.Error(err, logger.Field{Key: "action", Value: "close_publisher"})
			}
		}()
	}

	var b bootstrap.Bootstrap
	b.Init(bootstrap.BootstrapConfig{
		Config:    cfg,
		Logger:    appLogger,
		Metrics:   observability.NewMetrics(cfg.App.MetricsNamespace),
		Series:    repo,
		Source:    source,
		Publisher: publisher,
	})

	appLogger.Info("Price rollup collector started",
		logger.Field{Key: "app", Value: cfg.App.Name},
		logger.Field{Key: "environment", Value: cfg.App.Environment},
		logger.Field{Key: "backend", Value: cfg.Store.Backend},
		logger.Field{Key: "prefix", Value: cfg.Store.Prefix},
		logger.Field{Key: "http_addr", Value: cfg.App.HTTPAddr},
	)

	err = app.NewApp().
		WithSignals().
		WithService(b.Usecase.Collector).
		WithService(app.NewHTTPServer(cfg.App.HTTPAddr, b.HTTPHandler(), cfg.App.ShutdownTimeout)).
		Run(ctx)
	if err != nil && !app.IsSignal(err) {
		return err
	}

	appLogger.Info("Price rollup collector stopped")
	return nil
}
