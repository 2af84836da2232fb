// Package main provides the API server entry point for the portfolio service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/portfolio-service/internal/api"
	"github.com/portfolio-service/internal/config"
	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/marketdata"
	"github.com/portfolio-service/internal/service"
	"github.com/portfolio-service/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	portfolioRepo := storage.NewPortfolioRepository(postgres)
	transactionRepo := storage.NewTransactionRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)

	// Initialize quote client and price aggregator
	quoteClient := marketdata.NewClient(&marketdata.ClientConfig{
		BaseURL:           cfg.MarketData.BaseURL,
		Timeout:           cfg.MarketData.Timeout,
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
	})
	aggregator := marketdata.NewPriceAggregator(quoteClient)

	// Initialize services
	accountService := service.NewAccountService(portfolioRepo, transactionRepo)
	valuationService := service.NewValuationService(portfolioRepo, aggregator)
	snapshotService := service.NewSnapshotService(portfolioRepo, portfolioRepo, snapshotRepo, valuationService)

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:   cfg.RateLimit.Window,
	}

	server := api.NewServer(serverConfig, accountService, valuationService, snapshotService, redis, logger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
