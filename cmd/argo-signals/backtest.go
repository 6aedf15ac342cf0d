package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-signals/internal/backtest"
	"github.com/rxtech-lab/argo-signals/internal/backtest/engine"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay the catalog of a session config through its selected strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Session config `FILE`",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Id of the run and name of its results directory. Generated when empty",
			},
			&cli.IntFlag{
				Name:  "strategy-index",
				Usage: "Override strategy_index of the config",
				Value: -1,
			},
		},
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if index := cmd.Int("strategy-index"); index >= 0 {
		cfg.StrategyIndex = int(index)
	}

	session, err := backtest.NewSession(cfg, log)
	if err != nil {
		return err
	}

	// Ctrl-C stops the replay; open positions are still closed and results written
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, instruments []types.Instrument, totalTicks int) error {
		bar = progressbar.NewOptions(totalTicks,
			progressbar.OptionSetDescription(fmt.Sprintf("Replaying %d instruments", len(instruments))),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar != nil {
			_ = bar.Set(current)
		}

		return nil
	})

	result, err := session.Run(ctx, cmd.String("run-id"), engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
	})

	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		if result.ResultDir != "" {
			log.Warn("Run ended early, partial results written", zap.String("results", result.ResultDir))
		}

		return err
	}

	summary := result.Summary
	out := cmd.Root().Writer
	fmt.Fprintf(out, "run %s: %d ticks, %d decisions, %d fills, %d rejections\n",
		result.RunID, summary.Ticks, summary.Decisions, summary.Fills, summary.Rejections)
	fmt.Fprintf(out, "realized pnl %s over %d positions, final equity %s\n",
		summary.RealizedPnL.Total, summary.ClosedPositions, summary.FinalEquity)
	fmt.Fprintf(out, "results written to %s\n", result.ResultDir)

	return nil
}
