package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-quant/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-quant/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run one strategy over a daily bar file and write the results",
		Flags: append(append(sharedFlags(), strategyFlags()...),
			&cli.StringFlag{
				Name:    "strategy-config",
				Aliases: []string{"s"},
				Usage:   "Strategy config yaml (strategy name and parameters)",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder the run results are written under",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite run history database. Empty disables saving the run",
				Value: "argo-quant.db",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Hide the progress bar",
			},
		),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := loadStrategy(cmd)
	if err != nil {
		return err
	}

	e, err := newEngine(cmd, log)
	if err != nil {
		return err
	}

	dataPath := cmd.String("data")

	source, err := openSource(dataPath, log)
	if err != nil {
		return err
	}
	defer source.Close()

	var bar *progressbar.ProgressBar

	onStart := engine.OnRunStartCallback(func(runID string, strategyName string, symbol string, total int) error {
		if !cmd.Bool("quiet") {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(fmt.Sprintf("%s on %s", strategyName, symbol)),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		return nil
	})
	onProcess := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar != nil {
			return bar.Set(current)
		}

		return nil
	})

	callbacks := engine.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnProcessData: &onProcess,
	}

	result, err := e.RunWithDataSource(ctx, s, source, callbacks)
	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		return fmt.Errorf("backtest %s: %s: %w", s.Name(), engine.Outcome(err), err)
	}

	folder := engine_v1.ResultFolder(cmd.String("results"), result)

	stats, err := e.WriteResultsWithDataPath(result, folder, dataPath)
	if err != nil {
		return err
	}

	if dbPath := cmd.String("db"); dbPath != "" {
		history, err := store.NewSQLiteStore(dbPath, log)
		if err != nil {
			return err
		}
		defer history.Close()

		if err := history.SaveRun(ctx, stats, result.Trades); err != nil {
			return err
		}

		log.Debug("Run saved", zap.String("run_id", result.ID), zap.String("db", dbPath))
	}

	out := cmd.Root().Writer

	title := fmt.Sprintf("%s %s on %s", s.Name(), s.Parameters().String(), result.Symbol)
	fmt.Fprintln(out, renderMetrics(title, result.Metrics, result.Benchmark))
	fmt.Fprintf(out, "Final equity %.2f from %.2f, fees %.2f\n", result.FinalEquity(), result.InitialCapital, result.TotalFees)

	if len(result.RiskEvents) > 0 {
		rows := make([][]string, len(result.RiskEvents))
		for i, event := range result.RiskEvents {
			rows[i] = []string{
				event.Date.Format("2006-01-02"),
				string(event.Kind),
				fmt.Sprintf("%.4f", event.EntryPrice),
				fmt.Sprintf("%.4f", event.Price),
				signedPercent(-event.Drawdown),
			}
		}

		fmt.Fprintln(out, TitleStyle.Render("Risk events"))
		fmt.Fprintln(out, renderTable([]string{"Date", "Kind", "Entry", "Price", "Drawdown"}, rows))
	}

	fmt.Fprintln(out, HelpStyle.Render("Results written to "+folder+" (run "+result.ID+")"))

	return nil
}
