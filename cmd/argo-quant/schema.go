package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	engine_v1 "github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata"
	pkgstrategy "github.com/rxtech-lab/argo-quant/pkg/strategy"
	"github.com/urfave/cli/v3"
)

const engineSchemaName = "backtest-engine-v1-config.json"

// sampleEngineConfig is written next to the schema when no sample exists yet.
const sampleEngineConfig = `# yaml-language-server: $schema=` + engineSchemaName + `
initial_capital: 100000
max_position_size: 1
broker: zero_commission
commission_rate: 0
decimal_precision: 0
risk:
  enabled: false
  max_position_ratio: 0.2
  max_drawdown: 0.1
  stop_loss_ratio: 0.05
  take_profit_ratio: 0.15
`

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write JSON schemas for the engine, strategy and download configs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output folder",
				Value:   "config",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	folder := cmd.String("out")
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", folder, err)
	}

	files := map[string]string{}

	config := engine_v1.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	files[engineSchemaName] = schemaJSON

	for _, name := range strategy.Names() {
		schema, err := pkgstrategy.ParameterSchema(name)
		if err != nil {
			return err
		}

		files["strategy-"+name+".json"] = schema
	}

	for _, provider := range marketdata.GetSupportedProviders() {
		schema, err := marketdata.GetDownloadConfigSchema(provider)
		if err != nil {
			return err
		}

		files["download-"+provider+".json"] = schema
	}

	out := cmd.Root().Writer

	for _, name := range slices.Sorted(maps.Keys(files)) {
		path := filepath.Join(folder, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Fprintln(out, "Schema written to "+path)
	}

	samplePath := filepath.Join(folder, "backtest-engine-v1-config.yaml")
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		if err := os.WriteFile(samplePath, []byte(sampleEngineConfig), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", samplePath, err)
		}

		fmt.Fprintln(out, "Sample config written to "+samplePath)
	}

	return nil
}
