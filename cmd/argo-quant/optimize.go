package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-quant/internal/optimizer"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Sweep the default parameter grid of a strategy and rank by Sharpe ratio",
		Flags: append(sharedFlags(),
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Strategy name with a default grid (ma_crossover, momentum)",
				Value:   strategy.MACrossoverName,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of parallel backtests, 0 uses every CPU",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of ranked trials to print",
				Value: 10,
			},
		),
		Action: optimizeAction,
	}
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	name := cmd.String("name")

	grid, ok := optimizer.DefaultGrid(name)
	if !ok {
		return errors.Newf(errors.ErrCodeUnsupportedStrategy, "no default grid for strategy %s", name)
	}

	defaults, err := strategy.Defaults(name)
	if err != nil {
		return err
	}

	base, err := strategy.New(name, defaults)
	if err != nil {
		return err
	}

	e, err := newEngine(cmd, log)
	if err != nil {
		return err
	}

	bars, err := loadBars(ctx, e, cmd.String("data"), log)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(grid.Size(),
		progressbar.OptionSetDescription("optimizing "+name),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	opt := optimizer.NewOptimizer(e,
		optimizer.WithConcurrency(int(cmd.Int("concurrency"))),
		optimizer.WithLogger(log),
		optimizer.WithProgress(func(done int, _ int) {
			_ = bar.Set(done)
		}),
	)

	report, err := opt.Optimize(ctx, base, bars, grid)
	_ = bar.Finish()

	if err != nil {
		return err
	}

	ranked := report.Ranked()

	top := int(cmd.Int("top"))
	if top <= 0 || top > len(ranked) {
		top = len(ranked)
	}

	rows := make([][]string, 0, top)
	for i, trial := range ranked[:top] {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			trial.Parameters.String(),
			fmt.Sprintf("%.3f", trial.Metrics.SharpeRatio),
			signedPercent(trial.Metrics.TotalReturn),
			fmt.Sprintf("%.2f%%", trial.Metrics.MaxDrawdown*100),
			fmt.Sprintf("%d", trial.Metrics.TradeCount),
		})
	}

	out := cmd.Root().Writer

	fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("%s: %d of %d parameter sets ran", name, len(ranked), len(report.Trials))))
	fmt.Fprintln(out, renderTable([]string{"#", "Parameters", "Sharpe", "Return", "Max DD", "Trades"}, rows))
	fmt.Fprintln(out, "Best parameters: "+TitleStyle.Render(report.Best.Parameters.String()))

	return nil
}
