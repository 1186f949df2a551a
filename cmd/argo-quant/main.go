package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-quant",
		Usage:   "Backtest, optimize and inspect daily-bar trading strategies",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before running a command",
				Value: ".env",
			},
		},
		Before: loadEnv,
		Commands: []*cli.Command{
			backtestCommand(),
			optimizeCommand(),
			indicatorsCommand(),
			downloadCommand(),
			schemaCommand(),
			historyCommand(),
			versionCommand(),
		},
	}
}

// loadEnv loads the dotenv file when it exists. Variables already set are kept.
func loadEnv(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	err := godotenv.Load(cmd.String("env-file"))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return ctx, fmt.Errorf("failed to load %s: %w", cmd.String("env-file"), err)
	}

	return ctx, nil
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(cmd.String("log-level"))
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}
