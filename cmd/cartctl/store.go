package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/atelier-cart/internal/storage"
	"github.com/xenking/atelier-cart/internal/storage/file"
	"github.com/xenking/atelier-cart/internal/storage/memory"
	"github.com/xenking/atelier-cart/internal/storage/postgres"
	redisstore "github.com/xenking/atelier-cart/internal/storage/redis"
)

// openStore returns the configured snapshot store and a func releasing its
// connections.
func openStore(ctx context.Context, cfg storeConfig) (storage.Store, func(), error) {
	switch cfg.Kind {
	case "", "file":
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "memory":
		return memory.New(), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		return redisstore.New(rdb, redisstore.DefaultPrefix+":"+cfg.Namespace), func() { _ = rdb.Close() }, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("database URL is required for the postgres store")
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.New(pool, cfg.Namespace), pool.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown store %q", cfg.Kind)
	}
}
