// Package commands defines the schwabctl CLI surface.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
	"github.com/neusse/schwabctl/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "schwabctl",
		Usage: "Schwab OAuth token lifecycle and portfolio reporting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp)",
				Value: string(app.DefaultConfigLogFormat),
			},
		},
		Commands: []*cli.Command{
			setupEnvCommand(),
			fetchNewTokenCommand(),
			refreshTokenCommand(),
			analysisCommand(),
			positionsCommand(),
			quoteCommand(),
			metricsCommand(),
			packageCheckerCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads the configuration and installs logging. Every subcommand action
// starts here.
func setup(cmd *cli.Command) (*app.Config, func(context.Context) error, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, shutdown, nil
}
