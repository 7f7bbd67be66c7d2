package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/bootstrap"
	"github.com/muhammadchandra19/price-rollup/internal/config"
	"github.com/muhammadchandra19/price-rollup/internal/report"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

func main() {
	var (
		resolutionName string
		count          int
		all            bool
	)

	usage := fmt.Sprintf("Time resolution to display (%s, hour)", strings.Join(resolution.Names(), ", "))
	flag.StringVar(&resolutionName, "resolution", "minute", usage)
	flag.StringVar(&resolutionName, "r", "minute", usage+" (shorthand)")
	flag.IntVar(&count, "count", 0, "Number of entries to display")
	flag.IntVar(&count, "n", 0, "Number of entries to display (shorthand)")
	flag.BoolVar(&all, "all", false, "Display data for all resolutions")
	flag.BoolVar(&all, "a", false, "Display data for all resolutions (shorthand)")
	flag.Parse()

	if err := run(resolutionName, count, all); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(resolutionName string, count int, all bool) error {
	r, err := resolution.Parse(resolutionName)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// read only: never touch the schema
	cfg.Store.AutoMigrate = false

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeSeries, err := bootstrap.OpenSeries(ctx, cfg, logger.NewNop())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Store.Backend, err)
	}
	defer closeSeries()

	viewer := report.NewViewer(repo, cfg.Keys(), os.Stdout, time.Local)
	if all {
		return viewer.ShowAll(ctx)
	}
	return viewer.Show(ctx, r, count)
}
