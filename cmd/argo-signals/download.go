package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical market data into the tick catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Download config `FILE` (YAML or JSON). Other flags are ignored when set",
			},
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"t"},
				Usage:   "Symbol to download, repeatable",
			},
			&cli.StringFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format (or RFC3339). Defaults to today",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval",
				Value:   string(marketdata.TimespanOneDay),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:  "venue",
				Usage: "Venue the instruments are registered on",
				Value: "SIM",
			},
			&cli.StringFlag{
				Name:  "csv-dir",
				Usage: "Directory holding <SYMBOL>.csv exports, for the csv provider",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Root of the tick catalog",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := downloadConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	var onProgress provider.OnDownloadProgress
	// polygon draws its own bar
	if config.Provider != provider.ProviderPolygon {
		onProgress = progressReporter()
	}

	client, err := marketdata.NewClient(config.ToClientConfig(), onProgress, log)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	result, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Info("Download completed",
		zap.String("dir", result.Dir),
		zap.Bool("reused", result.Reused),
		zap.Int64("rows", result.Manifest.TotalRows()),
	)

	return nil
}

func downloadConfigFromFlags(cmd *cli.Command) (*marketdata.DownloadConfig, error) {
	if path := cmd.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		return marketdata.ParseDownloadConfig(data)
	}

	end := cmd.String("end")
	if end == "" {
		end = time.Now().UTC().Format(time.DateOnly)
	}

	config := &marketdata.DownloadConfig{
		Provider:  provider.ProviderType(cmd.String("provider")),
		Symbols:   cmd.StringSlice("symbol"),
		Venue:     cmd.String("venue"),
		StartDate: cmd.String("start"),
		EndDate:   end,
		Interval:  cmd.String("interval"),
		ApiKey:    os.Getenv("POLYGON_API_KEY"),
		CSVDir:    cmd.String("csv-dir"),
		DataPath:  cmd.String("data"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// progressReporter renders provider progress on one bar, resized whenever the
// provider reports a new total.
func progressReporter() provider.OnDownloadProgress {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	return func(current float64, total float64, message string) {
		if int64(total) != bar.GetMax64() {
			bar.ChangeMax64(int64(total))
		}

		bar.Describe(message)
		_ = bar.Set64(int64(current))
	}
}
