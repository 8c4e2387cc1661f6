package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
)

func analysisCommand() *cli.Command {
	return &cli.Command{
		Name:    "analysis",
		Aliases: []string{"py-analysis"},
		Usage:   "verify configuration, token artifact, and API connectivity end to end",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "update",
				Aliases: []string{"u"},
				Usage:   "force a token refresh before checking",
			},
		},
		Action: analysisAction,
	}
}

func analysisAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(cmd)
	if err != nil {
		return exitError(err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	checker := &app.HealthChecker{Config: cfg}
	results, runErr := checker.Run(ctx, cmd.Bool("update"))

	for _, stage := range results {
		if stage.Err != nil {
			fmt.Printf("✘ %-14s %v\n", stage.Name, stage.Err)
		} else {
			fmt.Printf("✔ %s\n", stage.Name)
		}
	}

	if runErr != nil {
		return exitError(runErr)
	}
	fmt.Println("All checks passed.")
	return nil
}
