package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pairs-lab/internal/config"
	"pairs-lab/internal/storage"
	chstore "pairs-lab/internal/storage/clickhouse"
	"pairs-lab/internal/storage/memory"
	"pairs-lab/internal/storage/migrations"
	pgstore "pairs-lab/internal/storage/postgres"
	redisstore "pairs-lab/internal/storage/redis"
)

// allStores holds all storage implementations.
type allStores struct {
	priceStore     storage.PriceHistoryStore
	pairStore      storage.PairStore
	tradeStore     storage.TradeStore
	summaryStore   storage.PairSummaryStore
	portfolioStore storage.PortfolioStore
	snapshotStore  storage.ZScoreSnapshotStore
	runStore       storage.RunStore
}

// createStores builds the configured backend. Postgres holds run results,
// ClickHouse holds price history when a DSN is set, and Redis holds z-score
// snapshots when an address is set. Anything unset falls back to memory.
func createStores(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*allStores, func(), error) {
	stores := &allStores{
		priceStore:     memory.NewPriceHistoryStore(),
		pairStore:      memory.NewPairStore(),
		tradeStore:     memory.NewTradeStore(),
		summaryStore:   memory.NewPairSummaryStore(),
		portfolioStore: memory.NewPortfolioStore(),
		snapshotStore:  memory.NewZScoreSnapshotStore(),
		runStore:       memory.NewRunStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Backend == config.BackendPostgres {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}

		stores.pairStore = pgstore.NewPairStore(pool)
		stores.tradeStore = pgstore.NewTradeStore(pool)
		stores.summaryStore = pgstore.NewPairSummaryStore(pool)
		stores.portfolioStore = pgstore.NewPortfolioStore(pool)
		stores.runStore = pgstore.NewRunStore(pool)
		logger.Info("Using postgres for run results")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })

		stores.priceStore = chstore.NewPriceHistoryStore(conn)
		logger.Info("Using clickhouse for price history")
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		stores.snapshotStore = redisstore.NewZScoreSnapshotStore(client, cfg.SnapshotTTL)
		logger.Info("Using redis for z-score snapshots")
	}

	return stores, cleanup, nil
}
