package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/seafoodai/seafood-terminal/pkg/auth"
	"github.com/seafoodai/seafood-terminal/pkg/client"
	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/dashboard"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/ratelimit"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg    *config.Config
	store  storage.Store
	tokens *auth.TokenStore
	api    *client.Client
	board  *dashboard.Board

	closers []func() error
}

// newApp opens the configured store and builds the API client and board.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	a.tokens = auth.NewTokenStore(store)

	clientCfg := client.DefaultConfig(cfg.APIURL)
	clientCfg.Tokens = a.tokens
	clientCfg.RateLimiter = ratelimit.NewTracker(store, logging.NewLogger(logging.ComponentRateLimit))
	api, err := client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.api = api
	a.closers = append(a.closers, api.Close)

	board, err := dashboard.NewBoard(cfg, api, store, dashboard.WithLogger(logging.NewLogger(logging.ComponentDashboard)))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create dashboard: %w", err)
	}
	a.board = board

	return a, nil
}

// Close releases the client and store in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openStore returns the storage backend selected by cfg.Store and a
// function closing it.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	logger := logging.NewLogger(logging.ComponentCLI)

	switch cfg.Store {
	case config.StoreMemory:
		return storage.NewMemoryStore(), func() error { return nil }, nil

	case config.StoreRedis:
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
		}
		logger.Info().Str("addr", cfg.RedisURL).Msg("Connected to Redis")
		return storage.NewRedisStore(redisClient, cfg.RedisPrefix), redisClient.Close, nil

	case config.StoreSQLite:
		path := cfg.SQLiteFile()
		db, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		logger.Info().Str("path", path).Msg("Opened SQLite cache")
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
