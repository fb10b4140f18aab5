package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gantryhq/gantry/internal/logging"
)

// Version is set during build using ldflags
var Version = "dev"

func main() {
	app := &cli.Command{
		Name:    "gantry",
		Version: Version,
		Usage:   "Config-driven HTTP routing server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (trace, debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text or json)",
				Value: logging.FormatText,
			},
		},
		Commands: []*cli.Command{
			versionCmd,
			validateCmd,
			serveCmd,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
