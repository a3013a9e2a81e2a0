// Command parser runs a single ingestion pass and exits. Useful for
// backfills and for running the pipeline from an external scheduler.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	appingestion "github.com/annaputilovskaya/TradingResults/internal/application/service/ingestion"
	"github.com/annaputilovskaya/TradingResults/internal/config"
	"github.com/annaputilovskaya/TradingResults/internal/infrastructure/spimex"
	infratrading "github.com/annaputilovskaya/TradingResults/internal/infrastructure/trading"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	repo, err := infratrading.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init trading results repo: %v", err)
	}
	defer repo.Close()

	client := spimex.NewClient(spimex.Options{
		BaseURL:           cfg.Spimex.BaseURL,
		RequestsPerSecond: cfg.Spimex.RatePerSecond,
		RequestTimeout:    time.Duration(cfg.Spimex.TimeoutSeconds) * time.Second,
	}, logger)

	service := appingestion.NewService(client, repo, cfg.Spimex.IngestWorkers, logger)
	if err := service.Run(ctx); err != nil {
		logger.Fatalf("ingestion run failed: %v", err)
	}
}
