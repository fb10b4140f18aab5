package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robbyt/go-loglater"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/urfave/cli/v3"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/logging"
	"github.com/gantryhq/gantry/internal/server/routing"
	"github.com/gantryhq/gantry/internal/server/runnables/cfgloader"
	"github.com/gantryhq/gantry/internal/server/runnables/httplistener"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Start the gantry server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Path to TOML configuration file",
			Required: true,
		},
	},
	Action: serveAction,
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	// Logs emitted before the config's logging section takes effect are
	// collected here and replayed onto the final handler.
	collector := loglater.NewLogCollector(slog.DiscardHandler)
	bootLogger := slog.New(collector)
	bootLogger.Info("Loading configuration", "path", configPath)

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Errorf("config validation failed: %w", err), 1)
	}
	bootLogger.Info("Configuration valid",
		"listeners", len(cfg.Listeners),
		"routes", len(cfg.Routes),
		"apps", len(cfg.Apps))

	// explicit flags override the config's logging section
	format := cfg.Logging.Format
	if cmd.Root().IsSet("log-format") || format == "" {
		format = cmd.Root().String("log-format")
	}
	level := cfg.Logging.Level
	if cmd.Root().IsSet("log-level") || level == "" {
		level = cmd.Root().String("log-level")
	}

	handler := logging.SetupHandler(format, level)
	slog.SetDefault(slog.New(handler))
	if err := collector.PlayLogs(handler); err != nil {
		slog.Warn("Failed to replay boot logs", "error", err)
	}

	return runServer(ctx, configPath, handler)
}

// runServer wires the runnables together and blocks until shutdown.
func runServer(ctx context.Context, configPath string, logHandler slog.Handler) error {
	logger := slog.New(logHandler)

	loader, err := cfgloader.NewRunner(
		configPath,
		cfgloader.WithContext(ctx),
		cfgloader.WithLogHandler(logHandler),
	)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create config loader: %w", err), 1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := routing.NewRegistry(
		loader.GetConfig,
		logger.With("component", "routing"),
		promRegistry,
	)

	httpRunner, err := httplistener.NewRunner(
		loader.GetConfig,
		registry,
		httplistener.WithLogger(logger.With("component", "http")),
	)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create HTTP listener runner: %w", err), 1)
	}

	// order matters: the loader must refresh before the registry and
	// listeners pick up the new config on reload
	runnables := []supervisor.Runnable{
		loader,
		registry,
		httpRunner,
	}

	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(logHandler),
		supervisor.WithRunnables(runnables...),
	)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create supervisor: %w", err), 1)
	}
	if err := super.Run(); err != nil {
		return cli.Exit(fmt.Errorf("failed to run server: %w", err), 1)
	}

	logger.Info("Server shutdown complete")
	return nil
}
