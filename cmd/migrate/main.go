package main

import (
	"context"
	"flag"
	"log"

	"github.com/muhammadchandra19/price-rollup/internal/bootstrap"
	"github.com/muhammadchandra19/price-rollup/internal/config"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/postgresql"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	steps := flag.Int("steps", 0, "Number of migrations to apply, 0 applies every pending one (up only)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewFromConfig(cfg.App.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	client, err := postgresql.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer client.Close()

	runner := bootstrap.NewMigrationRunner(client, appLogger)

	switch *direction {
	case "up":
		err = runner.MigrateUp(ctx, *steps)
	case "down":
		err = runner.MigrateDown(ctx, *steps)
	default:
		log.Fatalf("Unknown direction %q", *direction)
	}
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
}
