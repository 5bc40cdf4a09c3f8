package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/external/naver"
	"github.com/wonny/algosim/internal/external/yahoo"
	"github.com/wonny/algosim/internal/marketdata"
	"github.com/wonny/algosim/pkg/config"
	"github.com/wonny/algosim/pkg/database"
	"github.com/wonny/algosim/pkg/httputil"
	"github.com/wonny/algosim/pkg/logger"
	"github.com/wonny/algosim/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	store    contracts.PriceStore
	provider contracts.PriceProvider
	loader   *marketdata.Loader
	engine   *backtest.Engine

	closers []func()
}

// loadEnv reads the environment config and applies global flags
func loadEnv() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// newApp connects stores and builds the provider; providerName overrides DATA_PROVIDER when set
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, providerName string) (*app, error) {
	a := &app{
		cfg:    cfg,
		log:    log,
		engine: backtest.NewEngine(log),
	}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	provider, err := a.newProvider(providerName)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provider = provider

	a.loader = marketdata.NewLoader(provider, store, log)
	return a, nil
}

// connect opens PostgreSQL and Redis when configured
func (a *app) connect(ctx context.Context) error {
	rc, err := redis.New(ctx, a.cfg)
	if err != nil {
		// 캐시는 선택 사항
		a.log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.Disabled()
	}
	a.redis = rc
	a.closers = append(a.closers, func() { rc.Close() })

	if a.cfg.Database.URL == "" {
		return nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		if a.cfg.Store.Driver == "postgres" {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.log.WithError(err).Warn("Database unavailable")
		return nil
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.log.Debug("Connected to database")
	return nil
}

// newStore builds the configured store, fronted by Redis when enabled
func (a *app) newStore(ctx context.Context) (contracts.PriceStore, error) {
	var primary contracts.PriceStore

	switch a.cfg.Store.Driver {
	case "csv":
		s, err := marketdata.NewCSVStore(a.cfg.Store.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open csv store: %w", err)
		}
		primary = s
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(a.cfg.Store.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		s, err := marketdata.NewSQLiteStore(ctx, a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, func() { s.Close() })
		primary = s
	case "postgres":
		s := marketdata.NewPostgresStore(a.db.Pool)
		if err := s.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate price tables: %w", err)
		}
		primary = s
	case "none":
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}

	var hot contracts.PriceStore
	if a.redis.Enabled() {
		hot = marketdata.NewRedisCache(redis.NewCache(a.redis, a.cfg.Redis.Prefix), redis.TTLDaily)
	}

	return marketdata.NewTiered(a.log, hot, primary), nil
}

// newProvider builds the market data client with retry and rate limiting
func (a *app) newProvider(name string) (contracts.PriceProvider, error) {
	if name == "" {
		name = a.cfg.Provider.Name
	}

	httpClient := httputil.New(a.cfg.Provider, a.log)
	if a.redis.Enabled() {
		limiter := redis.NewRateLimiter(a.redis, a.cfg.Redis.Prefix)
		httpClient = httpClient.WithRateLimiter(limiter, redis.ProviderRateLimit(name))
	}

	switch name {
	case "yahoo":
		return yahoo.NewClient(httpClient, a.cfg.Provider, a.log), nil
	case "naver":
		return naver.NewClient(httpClient, a.cfg.Provider, a.log), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (expected yahoo or naver)", contracts.ErrInvalidParameter, name)
	}
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
