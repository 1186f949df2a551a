package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-quant/internal/store"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved backtest runs, or the trades of one run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite run history database",
				Value: "argo-quant.db",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Only runs on this symbol",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Only runs of this strategy",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the trades of this run id",
			},
			&cli.BoolFlag{
				Name:  "delete",
				Usage: "Delete the run given by --run",
			},
		},
		Action: historyAction,
	}
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	dbPath := cmd.String("db")
	if _, err := os.Stat(dbPath); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "no run history at %s", dbPath)
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	history, err := store.NewSQLiteStore(dbPath, log)
	if err != nil {
		return err
	}
	defer history.Close()

	out := cmd.Root().Writer

	if runID := cmd.String("run"); runID != "" {
		if cmd.Bool("delete") {
			if err := history.DeleteRun(ctx, runID); err != nil {
				return err
			}

			fmt.Fprintln(out, "Deleted run "+runID)

			return nil
		}

		return printRun(ctx, cmd, history, runID)
	}

	limit := cmd.Int("limit")
	if limit < 0 {
		limit = 0
	}

	runs, err := history.ListRuns(ctx, store.RunFilter{
		Symbol:   cmd.String("symbol"),
		Strategy: cmd.String("strategy"),
		Limit:    uint64(limit),
	})
	if err != nil {
		return err
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04"),
			run.Symbol,
			run.Strategy.Name,
			run.Strategy.Parameters.String(),
			signedPercent(run.Metrics.TotalReturn),
			fmt.Sprintf("%.3f", run.Metrics.SharpeRatio),
			fmt.Sprintf("%.2f%%", run.Metrics.MaxDrawdown*100),
		}
	}

	fmt.Fprintln(out, renderTable([]string{"Run", "Time", "Symbol", "Strategy", "Parameters", "Return", "Sharpe", "Max DD"}, rows))

	return nil
}

func printRun(ctx context.Context, cmd *cli.Command, history store.Store, runID string) error {
	run, err := history.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	trades, err := history.GetTrades(ctx, runID)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer

	fmt.Fprintln(out, renderMetrics(fmt.Sprintf("%s %s on %s", run.Strategy.Name, run.Strategy.Parameters.String(), run.Symbol), run.Metrics, run.Benchmark))

	rows := make([][]string, len(trades))
	for i, trade := range trades {
		rows[i] = []string{
			trade.Date.Format("2006-01-02"),
			string(trade.Side),
			fmt.Sprintf("%.4f", trade.Price),
			fmt.Sprintf("%g", trade.Shares),
			fmt.Sprintf("%.2f", trade.Fee),
			fmt.Sprintf("%.2f", trade.Profit),
			fmt.Sprintf("%g -> %g", trade.PositionFrom, trade.PositionTo),
		}
	}

	fmt.Fprintln(out, renderTable([]string{"Date", "Side", "Price", "Shares", "Fee", "Profit", "Position"}, rows))

	return nil
}
