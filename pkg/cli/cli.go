// Package cli provides the command-line interface for inji-pages.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/inji-pages/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file (default: config.yaml or config.yml in the working directory)",
		EnvVars: []string{"INJI_PAGES_CONFIG"},
	},
	&cli.StringSliceFlag{
		Name:  "env-file",
		Usage: "Dotenv file(s) loaded before config (missing files are skipped)",
		Value: cli.NewStringSlice(".env"),
	},
	&cli.StringFlag{
		Name:  "appium-url",
		Usage: "Appium server URL",
	},
	&cli.StringFlag{
		Name:  "caps",
		Usage: "Appium capabilities JSON file (merged over config capabilities)",
	},
	&cli.IntFlag{
		Name:  "timeout",
		Usage: "Element wait timeout in milliseconds",
	},
	&cli.StringFlag{
		Name:    "language",
		Aliases: []string{"l"},
		Usage:   "Header language to check (english, filipino)",
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to this file",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Include debug lines (every find and wire error) in the log file",
		EnvVars: []string{"INJI_PAGES_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "artifacts-dir",
		Usage: "Save a screenshot and the page source here when a check fails",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "inji-pages",
		Usage:   "Drive Inji wallet screens through an Appium server",
		Version: Version,
		Description: `Runs page-object checks against the app in an Appium session.

Examples:
  inji-pages locators
  inji-pages --appium-url http://127.0.0.1:4723 status
  inji-pages -l filipino status
  inji-pages --caps caps.json allow
  inji-pages --log-file run.log --verbose --artifacts-dir out status`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			locatorsCommand,
			statusCommand,
			allowCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
