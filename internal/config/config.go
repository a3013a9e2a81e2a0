package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultEnv             = "development"
	defaultHTTPHost        = "0.0.0.0"
	defaultHTTPPort        = 8000
	defaultRedisAddr       = "localhost:6379"
	defaultRedisDB         = 0
	defaultCacheTTLSeconds = 300

	defaultSpimexBaseURL        = "https://spimex.com"
	defaultSpimexRatePerSecond  = 2.0
	defaultSpimexTimeoutSeconds = 30
	defaultIngestWorkers        = 4

	defaultTimezone           = "Europe/Moscow"
	defaultParseSchedule      = "1 14 * * *"
	defaultCacheClearSchedule = "11 14 * * *"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env       string
	HTTP      HTTPConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Spimex    SpimexConfig
	Scheduler SchedulerConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters. An empty Addr disables
// response caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// SpimexConfig stores settings of the exchange website client.
type SpimexConfig struct {
	BaseURL        string
	RatePerSecond  float64
	TimeoutSeconds int
	IngestWorkers  int
}

// SchedulerConfig stores cron schedules for the recurring jobs.
type SchedulerConfig struct {
	Timezone           string
	ParseSchedule      string
	CacheClearSchedule string
}

// Load builds Config from environment variables, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	rate, err := getFloat("SPIMEX_RATE_PER_SECOND", defaultSpimexRatePerSecond)
	if err != nil {
		return nil, fmt.Errorf("parse SPIMEX_RATE_PER_SECOND: %w", err)
	}

	timeout, err := getInt("SPIMEX_TIMEOUT_SECONDS", defaultSpimexTimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse SPIMEX_TIMEOUT_SECONDS: %w", err)
	}

	workers, err := getInt("INGEST_WORKERS", defaultIngestWorkers)
	if err != nil {
		return nil, fmt.Errorf("parse INGEST_WORKERS: %w", err)
	}

	return &Config{
		Env:  getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: dsn,
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		Spimex: SpimexConfig{
			BaseURL:        getString("SPIMEX_BASE_URL", defaultSpimexBaseURL),
			RatePerSecond:  rate,
			TimeoutSeconds: timeout,
			IngestWorkers:  workers,
		},
		Scheduler: SchedulerConfig{
			Timezone:           getString("SCHEDULER_TIMEZONE", defaultTimezone),
			ParseSchedule:      getString("PARSE_SCHEDULE", defaultParseSchedule),
			CacheClearSchedule: getString("CACHE_CLEAR_SCHEDULE", defaultCacheClearSchedule),
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to float: %w", key, value, err)
	}
	return parsed, nil
}
