package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"randlab/internal/analyzer"
	"randlab/internal/api"
	"randlab/internal/config"
	"randlab/internal/metrics"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := appConfig.Logger()

	opts := []analyzer.Option{
		analyzer.WithLogger(logger),
		analyzer.WithWorkers(appConfig.Analysis.Workers),
	}
	if appConfig.Metrics {
		opts = append(opts, analyzer.WithObserver(metrics.Observer{}))
	}
	az := analyzer.New(opts...)

	server := api.NewServer(appConfig, az, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server (workers=%d, metrics=%t, dummy data=%s)",
		appConfig.Analysis.Workers, appConfig.Metrics, appConfig.Data.DummyPath())
	if err := server.Run(ctx, appConfig.Server.Addr()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
