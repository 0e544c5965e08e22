// Package main provides the pairslab CLI: z-score signals, backtests,
// portfolio construction and parameter sweeps over cointegrated pairs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-lab/internal/config"
	"pairs-lab/internal/logging"
)

// app carries state shared by all subcommands after PersistentPreRunE.
type app struct {
	cfgFile string
	envFile string

	cfg    *config.Config
	logger *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "pairslab",
		Short:         "Pairs trading research pipeline",
		Long:          `Generates z-score signals for cointegrated pairs, backtests them, filters pairs by performance and builds an equal-weight portfolio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./pairslab.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(
		newSignalsCmd(a),
		newBacktestCmd(a),
		newPortfolioCmd(a),
		newRunCmd(a),
		newSweepCmd(a),
		newIngestCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// setup loads .env, configuration and the logger.
func (a *app) setup() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func (a *app) signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			a.logger.WithField("signal", sig.String()).Warn("Received signal, cancelling")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
