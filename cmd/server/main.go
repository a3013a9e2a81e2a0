package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appingestion "github.com/annaputilovskaya/TradingResults/internal/application/service/ingestion"
	apptrading "github.com/annaputilovskaya/TradingResults/internal/application/service/trading"
	"github.com/annaputilovskaya/TradingResults/internal/config"
	"github.com/annaputilovskaya/TradingResults/internal/infrastructure/spimex"
	infratrading "github.com/annaputilovskaya/TradingResults/internal/infrastructure/trading"
	infrahttp "github.com/annaputilovskaya/TradingResults/internal/interfaces/http"
	"github.com/annaputilovskaya/TradingResults/internal/scheduler"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const migrationsDir = "migrations"

func main() {
	migrate := flag.Bool("migrate", false, "apply database migrations and continue")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if *migrate {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			logger.Fatalf("failed to apply migrations: %v", err)
		}
		logger.Info("migrations applied")
	}

	repo, err := infratrading.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init trading results repo: %v", err)
	}
	defer repo.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	tradingService := apptrading.NewService(repo)

	spimexClient := spimex.NewClient(spimex.Options{
		BaseURL:           cfg.Spimex.BaseURL,
		RequestsPerSecond: cfg.Spimex.RatePerSecond,
		RequestTimeout:    time.Duration(cfg.Spimex.TimeoutSeconds) * time.Second,
	}, logger)
	ingestionService := appingestion.NewService(spimexClient, repo, cfg.Spimex.IngestWorkers, logger)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handler := infrahttp.NewHandler(tradingService, redisClient, cacheTTL)

	var flushCache func(ctx context.Context) error
	if redisClient != nil {
		flushCache = handler.FlushCache
	}
	sched, err := scheduler.New(scheduler.Config{
		Timezone:           cfg.Scheduler.Timezone,
		ParseSchedule:      cfg.Scheduler.ParseSchedule,
		CacheClearSchedule: cfg.Scheduler.CacheClearSchedule,
	}, ingestionService, flushCache, logger)
	if err != nil {
		logger.Fatalf("failed to init scheduler: %v", err)
	}
	sched.Start(ctx)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	sched.Stop()
	logger.Info("server stopped")
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, migrationsDir)
}
