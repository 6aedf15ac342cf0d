package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the session or download config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Schema to print: session or download",
				Value: "session",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the schema to `FILE` instead of stdout",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			switch kind := cmd.String("kind"); kind {
			case "session":
				schema, err = config.GenerateSchemaJSON()
			case "download":
				schema, err = marketdata.GetDownloadConfigSchema()
			default:
				return fmt.Errorf("unknown schema kind %q", kind)
			}

			if err != nil {
				return err
			}

			if path := cmd.String("output"); path != "" {
				return os.WriteFile(path, []byte(schema), 0o644)
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}
