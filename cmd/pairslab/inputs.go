package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-lab/internal/config"
	"pairs-lab/internal/domain"
	"pairs-lab/internal/ingest"
	"pairs-lab/internal/pipeline"
)

// inputFlags are shared by every command that backtests pairs.
type inputFlags struct {
	pricesPath  string
	pairsPath   string
	fixtureDays int
	seed        int64
	outDir      string
	year        int
	workers     int
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.pricesPath, "prices", "", "wide price CSV (Date column plus one column per asset)")
	cmd.Flags().StringVar(&in.pairsPath, "pairs", "", "pair list CSV (Asset_Y, Asset_X, Hedge_Ratio); defaults to the pair store")
	cmd.Flags().IntVar(&in.fixtureDays, "fixtures", 0, "generate this many days of synthetic prices instead of reading CSVs")
	cmd.Flags().Int64Var(&in.seed, "seed", 1, "random seed for --fixtures")
	cmd.Flags().StringVar(&in.outDir, "out-dir", "output", "directory for generated files")
	cmd.Flags().IntVar(&in.year, "year", 0, "only match signals dated in this year (overrides pipeline.year)")
	cmd.Flags().IntVar(&in.workers, "workers", 0, "concurrent pairs (overrides pipeline.workers)")
}

// errPersistedInput is returned when a flag would re-insert rows into a
// persistent store on every invocation.
var errPersistedInput = errors.New("input flag conflicts with persistent storage")

// checkPersistence rejects --prices and --fixtures when the rows they
// insert would outlive the process. Persistent stores are filled once with
// the ingest command.
func (in *inputFlags) checkPersistence(cfg config.StorageConfig) error {
	persistentPrices := cfg.ClickhouseDSN != ""
	persistentPairs := cfg.Backend == config.BackendPostgres

	if in.pricesPath != "" && persistentPrices {
		return fmt.Errorf("%w: --prices with a ClickHouse price store; load prices with the ingest command", errPersistedInput)
	}
	if in.fixtureDays > 0 && (persistentPrices || persistentPairs) {
		return fmt.Errorf("%w: --fixtures needs the memory backend without a ClickHouse DSN", errPersistedInput)
	}
	return nil
}

// loadInputs fills the price store and returns the pairs to backtest.
func (a *app) loadInputs(ctx context.Context, stores *allStores, in *inputFlags) ([]domain.PairParameters, error) {
	if in.fixtureDays > 0 {
		pairs, err := pipeline.LoadFixtures(ctx, stores.priceStore, stores.pairStore, in.fixtureDays, in.seed)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		a.logger.WithField("days", in.fixtureDays).Info("Loaded synthetic fixtures")
		return pairs, nil
	}

	if in.pricesPath != "" {
		history, err := ingest.LoadPrices(in.pricesPath)
		if err != nil {
			return nil, err
		}
		n, err := ingest.StorePrices(ctx, stores.priceStore, history)
		if err != nil {
			return nil, err
		}
		a.logger.WithFields(logrus.Fields{"assets": len(history), "points": n}).Info("Loaded prices")
	}

	var pairs []domain.PairParameters
	var err error
	if in.pairsPath != "" {
		pairs, err = ingest.LoadPairs(in.pairsPath)
	} else {
		pairs, err = stores.pairStore.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, pipeline.ErrNoPairs
	}
	return pairs, nil
}

// pipelineOptions maps configuration and flag overrides onto pipeline.Options.
func (a *app) pipelineOptions(cmd *cobra.Command, stores *allStores, in *inputFlags) pipeline.Options {
	opts := pipeline.Options{
		PriceStore:     stores.priceStore,
		TradeStore:     stores.tradeStore,
		SummaryStore:   stores.summaryStore,
		PortfolioStore: stores.portfolioStore,
		SnapshotStore:  stores.snapshotStore,
		RunStore:       stores.runStore,
		Thresholds:     a.cfg.Thresholds(),
		Criteria:       a.cfg.Criteria(),
		Workers:        a.cfg.Pipeline.Workers,
		Year:           a.cfg.Pipeline.Year,
		SnapshotRows:   a.cfg.Pipeline.SnapshotRows,
		Mode:           cmd.Name(),
		Logger:         a.logger,
	}
	if cmd.Flags().Changed("year") {
		opts.Year = in.year
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = in.workers
	}
	return opts
}

// writeOutput writes content to dir/name, creating dir as needed.
func writeOutput(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
