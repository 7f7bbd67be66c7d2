package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/bootstrap"
	"github.com/muhammadchandra19/price-rollup/internal/config"
	kafkarollup "github.com/muhammadchandra19/price-rollup/internal/infrastructure/kafka/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/report"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/muhammadchandra19/price-rollup/internal/usecase/replay"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		brokers        = flag.String("brokers", "", "Kafka broker addresses (comma-separated), ROLLUP_KAFKA_BROKERS when empty")
		topic          = flag.String("topic", "", "Kafka topic name, ROLLUP_KAFKA_TOPIC when empty")
		resolutionName = flag.String("resolution", "5min", "Rollup resolution to replay (5min, 15min, 1h)")
		count          = flag.Int("count", 0, "Number of periods to replay, the viewer default when 0")
		delay          = flag.Duration("delay", 100*time.Millisecond, "Delay between events")
		dryRun         = flag.Bool("dry-run", false, "Print the rollups instead of publishing them")
	)
	flag.Parse()

	r, err := resolution.Parse(*resolutionName)
	if err != nil {
		log.Fatalf("Invalid resolution: %v", err)
	}
	if *count <= 0 {
		*count = report.DefaultCount(r)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Store.AutoMigrate = false
	if *brokers != "" {
		cfg.RollupKafka.Brokers = strings.Split(*brokers, ",")
	}
	if *topic != "" {
		cfg.RollupKafka.Topic = *topic
	}

	appLogger, err := logger.NewFromConfig(cfg.App.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeSeries, err := bootstrap.OpenSeries(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open series store: %v", err)
	}
	defer closeSeries()

	if *dryRun {
		rollups, err := replay.NewUsecase(repo, cfg.Keys(), nil, appLogger).Stored(ctx, r, *count)
		if err != nil {
			log.Fatalf("Failed to read rollups: %v", err)
		}
		for _, ro := range rollups {
			log.Printf("%s | %s | close %s | min %s | max %s",
				time.UnixMilli(ro.Timestamp).UTC().Format("2006-01-02 15:04:05"), ro.Resolution,
				report.FormatUSD(decimal.NewFromFloat(ro.Close)),
				report.FormatUSD(decimal.NewFromFloat(ro.Min)),
				report.FormatUSD(decimal.NewFromFloat(ro.Max)),
			)
		}
		return
	}

	publisher := kafkarollup.NewPublisher(cfg.RollupKafka, cfg.Store.Prefix, appLogger)
	defer publisher.Close()

	log.Printf("Replaying %s rollups to Kafka broker: %s, topic: %s", r, strings.Join(cfg.RollupKafka.Brokers, ","), cfg.RollupKafka.Topic)

	published, err := replay.NewUsecase(repo, cfg.Keys(), publisher, appLogger).Replay(ctx, r, *count, *delay)
	if err != nil {
		log.Printf("Replay stopped after %d events: %v", published, err)
		return
	}

	log.Printf("Successfully replayed %d rollups", published)
}
