package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	Store StoreConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data providers
	Provider ProviderConfig

	// Backtest defaults (overridable by flags or strategy YAML)
	Backtest BacktestConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects where fetched price series are persisted
type StoreConfig struct {
	Driver     string // csv, sqlite, postgres, none
	DataDir    string // csv store directory
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
}

// ProviderConfig holds price data provider configuration
type ProviderConfig struct {
	Name           string // yahoo, naver
	YahooBaseURL   string
	NaverBaseURL   string
	NaverChartURL  string
	RequestsPerSec int
	Timeout        time.Duration
	MaxRetries     int
}

// BacktestConfig holds default run parameters
type BacktestConfig struct {
	ShortWindow    int
	LongWindow     int
	InitialCapital float64
	RiskFreeRate   float64
	Interval       string
	ReportDir      string
	SweepWorkers   int
}

// SchedulerConfig holds the cache refresh job settings
type SchedulerConfig struct {
	RefreshSchedule string
	WatchList       []string
	LookbackDays    int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", "csv")),
			DataDir:    getEnv("DATA_DIR", "data"),
			SQLitePath: getEnv("SQLITE_PATH", "data/prices.db"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "algosim"),
		},

		Provider: ProviderConfig{
			Name:           strings.ToLower(getEnv("DATA_PROVIDER", "yahoo")),
			YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			NaverBaseURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			NaverChartURL:  getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			RequestsPerSec: getEnvAsInt("PROVIDER_RPS", 2),
			Timeout:        getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
			MaxRetries:     getEnvAsInt("PROVIDER_MAX_RETRIES", 3),
		},

		Backtest: BacktestConfig{
			ShortWindow:    getEnvAsInt("SHORT_WINDOW", 50),
			LongWindow:     getEnvAsInt("LONG_WINDOW", 200),
			InitialCapital: getEnvAsFloat("INITIAL_CAPITAL", 100000),
			RiskFreeRate:   getEnvAsFloat("RISK_FREE_RATE", 0.02),
			Interval:       getEnv("INTERVAL", "1d"),
			ReportDir:      getEnv("REPORT_DIR", "reports"),
			SweepWorkers:   getEnvAsInt("SWEEP_WORKERS", 4),
		},

		Scheduler: SchedulerConfig{
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 30 18 * * 1-5"),
			WatchList:       getEnvAsList("WATCH_LIST", nil),
			LookbackDays:    getEnvAsInt("REFRESH_LOOKBACK_DAYS", 3650),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Driver {
	case "csv", "sqlite", "none":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: csv, sqlite, postgres, none")
	}

	if c.Provider.Name != "yahoo" && c.Provider.Name != "naver" {
		return fmt.Errorf("DATA_PROVIDER must be one of: yahoo, naver")
	}

	if c.Provider.RequestsPerSec <= 0 {
		return fmt.Errorf("PROVIDER_RPS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
