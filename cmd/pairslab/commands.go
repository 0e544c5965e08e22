package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-lab/internal/config"
	"pairs-lab/internal/domain"
	"pairs-lab/internal/ingest"
	"pairs-lab/internal/observability"
	"pairs-lab/internal/pipeline"
	"pairs-lab/internal/reporting"
	"pairs-lab/internal/strategy"
	"pairs-lab/internal/timeseries"
)

// withSession opens stores and loads inputs, then runs fn under a
// signal-aware context.
func (a *app) withSession(cmd *cobra.Command, in *inputFlags, fn func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error) error {
	if err := in.checkPersistence(a.cfg.Storage); err != nil {
		return err
	}

	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	stores, cleanup, err := createStores(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pairs, err := a.loadInputs(ctx, stores, in)
	if err != nil {
		return err
	}
	return fn(ctx, stores, pairs)
}

func newSignalsCmd(a *app) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Compute z-scores and LONG/SHORT/EXIT signals per pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, in, func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error {
				opts := a.pipelineOptions(cmd, stores, in)
				if opts.SnapshotRows <= 0 {
					opts.SnapshotRows = pipeline.DefaultSnapshotRows
				}
				strat, err := strategy.FromThresholds(opts.Thresholds)
				if err != nil {
					return err
				}
				history, err := stores.priceStore.GetAll(ctx)
				if err != nil {
					return fmt.Errorf("load price history: %w", err)
				}

				for _, pair := range pairs {
					log := a.logger.WithField("pair", pair.Name())

					zscores, err := timeseries.PairZScores(history, pair, opts.Thresholds.RollingWindow)
					if err != nil {
						log.WithError(err).Warn("Skipping pair")
						continue
					}
					events, err := strat.Generate(ctx, zscores)
					if err != nil {
						return err
					}
					events = domain.FilterEvents(events)
					if opts.Year != 0 {
						events = timeseries.EventsInYear(events, opts.Year)
					}

					snapshot := timeseries.DefinedTail(zscores, opts.SnapshotRows)
					if err := stores.snapshotStore.Put(ctx, pair.Key(), snapshot); err != nil {
						return err
					}

					if _, err := writeOutput(filepath.Join(in.outDir, "signals"), pair.Name()+"_signals.csv", reporting.RenderSignalsCSV(pair, events)); err != nil {
						return err
					}
					if _, err := writeOutput(filepath.Join(in.outDir, "zscore"), pair.Name()+"_zscore.csv", reporting.RenderZScoreCSV(pair, snapshot)); err != nil {
						return err
					}
					log.WithField("signals", len(events)).Info("Signals generated")
				}
				return nil
			})
		},
	}
	in.register(cmd)
	return cmd
}

func newBacktestCmd(a *app) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Match signals into trades and write the qualified pair table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, in, func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error {
				result, err := a.runPipeline(ctx, cmd, stores, in, pairs)
				if err != nil {
					return err
				}
				report := reporting.NewGenerator(stores.runStore, stores.summaryStore, stores.portfolioStore).FromRunResult(result)

				return a.writeOutputs(in.outDir, map[string]string{
					"trades.csv":         reporting.RenderTradesCSV(result.Trades()),
					"filtered_pairs.csv": reporting.RenderPairTableCSV(report),
				})
			})
		},
	}
	in.register(cmd)
	return cmd
}

func newPortfolioCmd(a *app) *cobra.Command {
	in := &inputFlags{}
	var runID string
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Build the equal-weight portfolio of qualified pairs",
		Long:  `Runs the pipeline and writes the portfolio curve. With --run-id, reads a stored run instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != "" {
				return a.storedPortfolio(cmd, in, runID)
			}
			return a.withSession(cmd, in, func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error {
				result, err := a.runPipeline(ctx, cmd, stores, in, pairs)
				if err != nil {
					return err
				}
				report := reporting.NewGenerator(stores.runStore, stores.summaryStore, stores.portfolioStore).FromRunResult(result)
				a.logPortfolio(report)
				return a.writeOutputs(in.outDir, map[string]string{
					"portfolio_cumulative_returns.csv": reporting.RenderPortfolioCSV(report.Portfolio),
				})
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "read the portfolio of a stored run")
	return cmd
}

// storedPortfolio renders a run persisted by an earlier invocation.
func (a *app) storedPortfolio(cmd *cobra.Command, in *inputFlags, runID string) error {
	ctx, cancel := a.signalContext(cmd.Context())
	defer cancel()

	stores, cleanup, err := createStores(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := reporting.NewGenerator(stores.runStore, stores.summaryStore, stores.portfolioStore).Generate(ctx, runID)
	if err != nil {
		return err
	}
	a.logPortfolio(report)
	return a.writeOutputs(in.outDir, map[string]string{
		"portfolio_cumulative_returns.csv": reporting.RenderPortfolioCSV(report.Portfolio),
		"REPORT.md":                        reporting.RenderMarkdown(report),
	})
}

func newRunCmd(a *app) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and write every report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, in, func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error {
				stop := a.startMetricsServer(ctx)
				defer stop()

				result, err := a.runPipeline(ctx, cmd, stores, in, pairs)
				if err != nil {
					return err
				}
				report := reporting.NewGenerator(stores.runStore, stores.summaryStore, stores.portfolioStore).FromRunResult(result)
				a.logPortfolio(report)

				return a.writeOutputs(in.outDir, map[string]string{
					"trades.csv":                       reporting.RenderTradesCSV(result.Trades()),
					"filtered_pairs.csv":               reporting.RenderPairTableCSV(report),
					"portfolio_cumulative_returns.csv": reporting.RenderPortfolioCSV(report.Portfolio),
					"REPORT.md":                        reporting.RenderMarkdown(report),
				})
			})
		},
	}
	in.register(cmd)
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the pipeline over a grid of entry and exit thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, in, func(ctx context.Context, stores *allStores, pairs []domain.PairParameters) error {
				opts := a.pipelineOptions(cmd, stores, in)
				cells, err := pipeline.Sweep(ctx, opts, pairs, a.cfg.Sweep.EntryValues, a.cfg.Sweep.ExitValues)
				if err != nil {
					return err
				}

				rows := reporting.SweepRows(cells)
				return a.writeOutputs(in.outDir, map[string]string{
					"zscore_sensitivity.csv": reporting.RenderSweepCSV(rows),
					"SWEEP.md":               reporting.RenderSweepMarkdown(rows),
				})
			})
		},
	}
	in.register(cmd)
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var pricesPath, pairsPath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load price and pair CSVs into the configured stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pricesPath == "" && pairsPath == "" {
				return errors.New("nothing to ingest: pass --prices and/or --pairs")
			}
			ctx, cancel := a.signalContext(cmd.Context())
			defer cancel()

			stores, cleanup, err := createStores(ctx, a.cfg.Storage, a.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if pricesPath != "" {
				history, err := ingest.LoadPrices(pricesPath)
				if err != nil {
					return err
				}
				n, err := ingest.StorePrices(ctx, stores.priceStore, history)
				if err != nil {
					return err
				}
				a.logger.WithFields(logrus.Fields{"assets": len(history), "points": n}).Info("Prices ingested")
			}
			if pairsPath != "" {
				pairs, err := ingest.LoadPairs(pairsPath)
				if err != nil {
					return err
				}
				if err := ingest.StorePairs(ctx, stores.pairStore, pairs); err != nil {
					return err
				}
				a.logger.WithField("pairs", len(pairs)).Info("Pairs ingested")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pricesPath, "prices", "", "wide price CSV")
	cmd.Flags().StringVar(&pairsPath, "pairs", "", "pair list CSV")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(out, a.cfg); err != nil {
				return err
			}
			a.logger.WithField("path", out).Info("Configuration written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "pairslab.yaml", "destination file")
	return cmd
}

// runPipeline runs one backtest and logs per-pair failures.
func (a *app) runPipeline(ctx context.Context, cmd *cobra.Command, stores *allStores, in *inputFlags, pairs []domain.PairParameters) (*pipeline.RunResult, error) {
	p, err := pipeline.New(a.pipelineOptions(cmd, stores, in))
	if err != nil {
		return nil, err
	}
	result, err := p.Run(ctx, pairs)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		a.logger.WithField("run_id", result.RunID).Warn(e)
	}
	return result, nil
}

func (a *app) logPortfolio(r *reporting.Report) {
	a.logger.WithFields(logrus.Fields{
		"run_id":       r.RunID,
		"qualified":    len(r.Pairs),
		"sharpe":       fmt.Sprintf("%.2f", r.Portfolio.SharpeRatio),
		"max_drawdown": fmt.Sprintf("%.2f%%", r.Portfolio.MaxDrawdown*100),
		"total_return": fmt.Sprintf("%.2f%%", r.Portfolio.TotalReturn*100),
	}).Info("Portfolio results")
}

func (a *app) writeOutputs(dir string, files map[string]string) error {
	for name, content := range files {
		path, err := writeOutput(dir, name, content)
		if err != nil {
			return err
		}
		a.logger.WithField("path", path).Info("Wrote output")
	}
	return nil
}

// startMetricsServer serves /metrics and /health when metrics.addr is set.
// The returned func shuts the server down.
func (a *app) startMetricsServer(ctx context.Context) func() {
	if a.cfg.Metrics.Addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.logger.WithField("addr", srv.Addr).Info("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("Metrics server error")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
