package main

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/urfave/cli/v3"
)

func indicatorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "indicators",
		Usage: "List indicators or compute one over a daily bar file",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the built-in indicators and their default parameters",
				Action: func(_ context.Context, cmd *cli.Command) error {
					registry := indicator.NewDefaultRegistry()

					rows := [][]string{}
					for _, name := range registry.ListIndicators() {
						ind, err := registry.GetIndicator(name)
						if err != nil {
							return err
						}

						rows = append(rows, []string{string(name), ind.Parameters().String(), strconv.Itoa(ind.Lookback())})
					}

					fmt.Fprintln(cmd.Root().Writer, renderTable([]string{"Indicator", "Parameters", "Lookback"}, rows))

					return nil
				},
			},
			{
				Name:      "calc",
				Usage:     "Compute an indicator and print its last values",
				ArgsUsage: "<indicator> [parameters...]",
				Flags: append(sharedFlags(),
					&cli.IntFlag{
						Name:  "tail",
						Usage: "Number of trailing bars to print",
						Value: 10,
					},
				),
				Action: calcAction,
			},
		},
	}
}

func calcAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "indicator name is required")
	}

	ind, err := indicator.NewDefaultRegistry().GetIndicator(types.IndicatorType(cmd.Args().First()))
	if err != nil {
		return err
	}

	if rest := cmd.Args().Tail(); len(rest) > 0 {
		params := make([]any, len(rest))

		for i, raw := range rest {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeInvalidType, err, "parameter %q is not a number", raw)
			}

			params[i] = v
		}

		if err := ind.Config(params...); err != nil {
			return err
		}
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	e, err := newEngine(cmd, log)
	if err != nil {
		return err
	}

	bars, err := loadBars(ctx, e, cmd.String("data"), log)
	if err != nil {
		return err
	}

	output, err := ind.Calculate(bars)
	if err != nil && !errors.IsInsufficientDataError(err) {
		return err
	}

	tail := int(cmd.Int("tail"))
	if tail <= 0 || tail > len(bars) {
		tail = len(bars)
	}

	headers := append([]string{"Date", "Close"}, output.Columns...)
	rows := make([][]string, 0, tail)

	for i := len(bars) - tail; i < len(bars); i++ {
		row := []string{bars[i].Time.Format("2006-01-02"), fmt.Sprintf("%.4f", bars[i].Close)}

		for _, column := range output.Columns {
			row = append(row, formatValue(output.Column(column)[i]))
		}

		rows = append(rows, row)
	}

	out := cmd.Root().Writer

	fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("%s %s", ind.Name(), ind.Parameters().String())))
	fmt.Fprintln(out, renderTable(headers, rows))

	if err != nil {
		fmt.Fprintln(out, HelpStyle.Render(err.Error()))
	}

	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}

	return fmt.Sprintf("%.4f", v)
}
