// Package store persists the two tables of the planner: events and
// per-platform weekly quotas.
//
// Every save rewrites the whole table. There is no locking across
// processes, so concurrent writers race and the last writer wins.
package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"contentcal/internal/config"
	"contentcal/internal/model"
)

// Store loads and saves the event and quota tables.
//
// LoadEvents never fails on a malformed row: an unparseable date yields an
// event with a zero Date, which date-based views skip. LoadQuotas seeds and
// persists the default quotas when the table is missing or empty.
type Store interface {
	LoadEvents(ctx context.Context) ([]model.Event, error)
	SaveEvents(ctx context.Context, events []model.Event) error
	LoadQuotas(ctx context.Context) (model.QuotaSet, error)
	SaveQuotas(ctx context.Context, quotas model.QuotaSet) error
}

// Invalidator is implemented by stores that memoize loads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Open builds the store described by cfg: the backing table store wrapped
// in the configured cache.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	defaults := model.QuotaSet(cfg.DefaultQuotas)

	var backing Store
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := OpenPostgres(ctx, cfg.Store.DatabaseURL, defaults)
		if err != nil {
			return nil, err
		}
		backing = pg
	case "csv", "":
		backing = NewCSVStore(cfg.Store.DataDir, defaults)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	switch cfg.Cache.Driver {
	case "none":
		return backing, nil
	case "redis":
		rc := NewRedisCache(RedisOptions{
			Address:  cfg.Cache.RedisAddress,
			Username: cfg.Cache.RedisUsername,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := rc.Ping(ctx); err != nil {
			_ = Close(backing)
			_ = rc.Close()
			return nil, fmt.Errorf("store: redis: %w", err)
		}
		return NewCached(backing, rc, ttl), nil
	default:
		return NewCached(backing, NewMemoryCache(), ttl), nil
	}
}

// Close releases resources held by s, if any.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
