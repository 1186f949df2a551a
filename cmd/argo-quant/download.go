package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol (SPY, BTCUSDT)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now().UTC().Truncate(24 * time.Hour),
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (%s, %s)", marketdata.ProviderPolygon, marketdata.ProviderBinance),
				Value:   string(marketdata.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (parquet, csv)",
				Value: "parquet",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

// downloadAction sets up the market data client and downloads the requested range.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
		Format:        cmd.String("format"),
	}

	bar := progressbar.NewOptions(1000,
		progressbar.OptionSetDescription("Downloading "+ticker),
		progressbar.OptionClearOnFinish(),
	)

	client, err := marketdata.NewClient(clientConfig, func(current float64, total float64, _ string) {
		if total > 0 {
			_ = bar.Set(int(1000 * current / total))
		}
	}, log)
	if err != nil {
		return err
	}

	log.Info("Starting download",
		zap.String("ticker", ticker),
		zap.String("start", startDate.Format(time.DateOnly)),
		zap.String("end", endDate.Format(time.DateOnly)),
		zap.String("provider", string(clientConfig.ProviderType)),
	)

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:    ticker,
		StartDate: startDate,
		EndDate:   endDate,
	})
	_ = bar.Finish()

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, "Downloaded "+ticker+" to "+TitleStyle.Render(path))

	return nil
}
