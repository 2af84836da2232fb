// Package main provides the daily snapshot job entry point. It is meant to
// be run once a day, after market close, by cron or a scheduler.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/portfolio-service/internal/config"
	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/marketdata"
	"github.com/portfolio-service/internal/service"
	"github.com/portfolio-service/internal/storage"
)

func main() {
	var (
		dateFlag = flag.String("date", "", "Snapshot date as YYYY-MM-DD (default: today)")
		timeout  = flag.Duration("timeout", 10*time.Minute, "Overall run timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	asOf := time.Now().UTC()
	if *dateFlag != "" {
		asOf, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			logger.WithError(err).Fatal("Invalid -date, expected YYYY-MM-DD")
		}
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	portfolioRepo := storage.NewPortfolioRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)

	quoteClient := marketdata.NewClient(&marketdata.ClientConfig{
		BaseURL:           cfg.MarketData.BaseURL,
		Timeout:           cfg.MarketData.Timeout,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
	})
	aggregator := marketdata.NewPriceAggregator(quoteClient)

	valuationService := service.NewValuationService(portfolioRepo, aggregator)
	snapshotService := service.NewSnapshotService(portfolioRepo, portfolioRepo, snapshotRepo, valuationService)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	captured, err := snapshotService.CaptureAll(ctx, asOf)
	if err != nil {
		logger.WithError(err).Fatal("Snapshot run failed")
	}

	logger.WithField("captured", captured).Info("Snapshot job finished")
}
