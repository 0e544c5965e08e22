package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-lab/internal/verification"
)

var errVerificationFailed = errors.New("run did not reproduce")

func newVerifyCmd(a *app) *cobra.Command {
	var runID, tradeID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a stored run and compare its trades",
		Long: `Re-runs the backtest for every pair of a stored run against the stored
price history and reports trades that differ, are missing or are extra.
Requires a persistent storage backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return errors.New("--run-id is required")
			}

			ctx, cancel := a.signalContext(cmd.Context())
			defer cancel()

			stores, cleanup, err := createStores(ctx, a.cfg.Storage, a.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
				RunStore:   stores.runStore,
				TradeStore: stores.tradeStore,
				PriceStore: stores.priceStore,
				Thresholds: a.cfg.Thresholds(),
			})

			if tradeID != "" {
				res, err := v.VerifyTrade(ctx, runID, tradeID)
				if err != nil {
					return err
				}
				a.logResult(*res)
				if !res.Match {
					return errVerificationFailed
				}
				return nil
			}

			report, err := v.VerifyRun(ctx, runID)
			if err != nil {
				return err
			}
			for _, res := range report.Results {
				if !res.Match {
					a.logResult(res)
				}
			}
			for _, id := range report.ExtraTrades {
				a.logger.WithField("trade_id", id).Warn("Replay produced trade missing from store")
			}
			a.logger.WithFields(logrus.Fields{
				"run_id":    report.RunID,
				"trades":    report.TotalTrades,
				"matched":   report.MatchedTrades,
				"divergent": report.DivergentTrades,
				"extra":     len(report.ExtraTrades),
			}).Info("Verification complete")

			if !report.OK() {
				return errVerificationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run to verify")
	cmd.Flags().StringVar(&tradeID, "trade-id", "", "verify a single trade")
	return cmd
}

func (a *app) logResult(res verification.VerificationResult) {
	entry := a.logger.WithFields(logrus.Fields{
		"trade_id": res.TradeID,
		"pair":     res.Pair,
	})
	if res.Match {
		entry.Info("Trade reproduced")
		return
	}
	for _, d := range res.Divergences {
		entry.WithFields(logrus.Fields{
			"field":    d.Field,
			"expected": d.Expected,
			"actual":   d.Actual,
		}).Warn("Trade diverged")
	}
}
