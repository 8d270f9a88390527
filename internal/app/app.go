// Package app assembles the stores, caches and services shared by the
// binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/auth"
	"github.com/evapp/ev-backend/internal/awsclient"
	"github.com/evapp/ev-backend/internal/cache"
	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/station"
	"github.com/evapp/ev-backend/internal/store"
)

type App struct {
	Config      *config.Config
	DB          *sql.DB
	Stations    *store.StationStore
	Vehicles    *store.VehicleStore
	StationRepo *cache.CachedStationRepository
	Finder      *station.Finder
	Auth        *auth.Service

	redis *cache.RedisClient
}

// New opens the database, makes sure the schema exists and wires the services
// on top of it.
func New(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*App, error) {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := store.CreateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Stations: store.NewStationStore(db),
		Vehicles: store.NewVehicleStore(db),
	}

	var snapshots cache.SnapshotStore
	if cfg.RedisAddr != "" && cacheCfg.EnableRedisCache {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisAddr, redisOptions(cacheCfg)...)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, continuing without shared cache")
		} else {
			a.redis = rc
			snapshots = rc
		}
	}

	a.StationRepo, err = cache.NewCachedStationRepository(a.Stations, cacheCfg, snapshots)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Finder = station.NewFinder(a.StationRepo)

	users, err := newUserStore(ctx, cfg, db)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Auth = auth.NewService(users, cfg.SecretKey, cfg.AccessTokenTTL)

	return a, nil
}

// redisOptions overrides the client defaults with the configured values that
// are set.
func redisOptions(cacheCfg *config.CacheConfig) []cache.RedisOption {
	var opts []cache.RedisOption
	if cacheCfg.RedisPoolSize > 0 {
		opts = append(opts, cache.WithPoolSize(cacheCfg.RedisPoolSize))
	}
	if d := cacheCfg.GetRedisDialTimeout(); d > 0 {
		opts = append(opts, cache.WithDialTimeout(d))
	}
	if d := cacheCfg.GetRedisReadTimeout(); d > 0 {
		opts = append(opts, cache.WithReadTimeout(d))
	}
	return opts
}

func newUserStore(ctx context.Context, cfg *config.Config, db *sql.DB) (auth.UserStore, error) {
	switch cfg.UserStore {
	case "sql":
		return store.NewUserStore(db), nil
	case "dynamo":
		endpoint := cfg.DynamoDBEndpoint
		if endpoint == "" {
			endpoint = cfg.AWSEndpoint
		}
		client, err := awsclient.NewDynamoClient(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		log.Info().Str("table", cfg.UsersTable).Msg("Using DynamoDB user store")
		return auth.NewDynamoUserStore(client, cfg.UsersTable), nil
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
