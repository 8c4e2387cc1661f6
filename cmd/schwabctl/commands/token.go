package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/authflow"
)

func fetchNewTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch-new-token",
		Usage: "obtain a brand-new token artifact via the browser OAuth flow",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, shutdown, err := setup(cmd)
			if err != nil {
				return exitError(err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			flow, err := cfg.Flow(os.Stdin, os.Stdout)
			if err != nil {
				return exitError(err)
			}

			art, err := authflow.Acquire(ctx, flow)
			if err != nil {
				return exitError(err)
			}

			fmt.Printf("Token acquired. Access credential valid until %s.\n", expiryOf(art))
			return nil
		},
	}
}

func refreshTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh-token",
		Usage: "mint a new access credential from the stored refresh credential",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, shutdown, err := setup(cmd)
			if err != nil {
				return exitError(err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			flow, err := cfg.Flow(nil, nil)
			if err != nil {
				return exitError(err)
			}

			// Manual invocation always refreshes, even if still valid.
			art, err := authflow.Refresh(ctx, flow, true)
			if err != nil {
				return exitError(err)
			}

			fmt.Printf("Token refreshed. Access credential valid until %s.\n", expiryOf(art))
			return nil
		},
	}
}

func expiryOf(art *authflow.Artifact) string {
	return time.Unix(art.Token.ExpiresAt, 0).Format(time.RFC1123)
}
