package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "paranote",
		Usage: "Parse Markdown notes, extract action items and file them into PARA folders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (defaults apply when it does not exist)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault root, overrides vault.path",
				Sources: cli.EnvVars("PARANOTE_VAULT"),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable coloured output",
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			batchCommand(),
			actionsCommand(),
			updateCommand(),
			linkCommand(),
			categorizeCommand(),
			syncCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
