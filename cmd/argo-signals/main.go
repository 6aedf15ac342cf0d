package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-signals",
		Usage:   "Download market data and backtest signal strategies against it",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Human readable debug logging instead of JSON",
			},
		},
		Commands: []*cli.Command{
			downloadCommand(),
			backtestCommand(),
			schemaCommand(),
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

					return err
				},
			},
		},
	}
}

// newLogger builds the logger selected by the root --dev flag.
func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	if cmd.Bool("dev") {
		return logger.NewDevelopmentLogger()
	}

	return logger.NewLogger()
}
