package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	engine_v1 "github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/internal/utils"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/urfave/cli/v3"
)

// sharedFlags returns the data, engine config and symbol flags used by several commands.
func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Daily bar file (parquet or csv)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Engine config yaml. Defaults are used when omitted",
		},
		&cli.StringFlag{
			Name:  "symbol",
			Usage: "Symbol to load, overrides the engine config",
		},
	}
}

// strategyFlags returns the flags loadStrategy reads besides --strategy-config.
func strategyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Strategy name: " + strings.Join(strategy.Names(), ", "),
		},
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Strategy parameter as key=value, may be repeated",
		},
	}
}

// newEngine builds an engine from the config file and symbol flags.
func newEngine(cmd *cli.Command, log *logger.Logger) (*engine_v1.BacktestEngineV1, error) {
	e := engine_v1.NewBacktestEngineV1WithLogger(log)

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to read engine config %s", path)
		}

		if err := e.Initialize(string(content)); err != nil {
			return nil, err
		}
	}

	if symbol := cmd.String("symbol"); symbol != "" {
		config := e.Config()
		config.Symbol = normalizeSymbol(symbol)

		if err := e.InitializeWithConfig(config); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// normalizeSymbol prefixes bare six digit stock codes with their exchange and leaves other tickers alone.
func normalizeSymbol(symbol string) string {
	normalized := utils.NormalizeSymbol(symbol)
	if utils.ValidateStockCode(normalized) {
		return normalized
	}

	return symbol
}

// openSource opens the data file behind an in-memory copy, so repeated queries do not hit the file.
func openSource(path string, log *logger.Logger) (datasource.DataSource, error) {
	duck, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}

	source := datasource.NewPreloadedDataSource(duck)
	if err := source.Initialize(path); err != nil {
		source.Close()

		return nil, err
	}

	return source, nil
}

// loadBars reads the configured symbol and window from the data file.
func loadBars(ctx context.Context, e *engine_v1.BacktestEngineV1, path string, log *logger.Logger) ([]types.Bar, error) {
	source, err := openSource(path, log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	config := e.Config()

	return source.GetRange(ctx, config.Symbol, config.StartTime, config.EndTime)
}

// loadStrategy builds the strategy from --strategy-config, or from --name with --param overrides.
func loadStrategy(cmd *cli.Command) (strategy.Strategy, error) {
	if path := cmd.String("strategy-config"); path != "" {
		config, err := strategy.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		return config.Build()
	}

	name := cmd.String("name")
	if name == "" {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategy, "either --strategy-config or --name is required")
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return nil, err
	}

	return strategy.New(name, params)
}

// parseParams turns key=value pairs into a parameter set.
func parseParams(pairs []string) (types.ParameterSet, error) {
	values := make(map[string]float64, len(pairs))

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return types.ParameterSet{}, errors.Newf(errors.ErrCodeInvalidParameter, "parameter %q is not key=value", pair)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return types.ParameterSet{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "parameter %s is not a number", key)
		}

		values[key] = value
	}

	return types.NewParameterSet(values), nil
}
