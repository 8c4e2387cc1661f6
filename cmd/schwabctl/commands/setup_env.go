package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/neusse/schwabctl/internal/envstore"
)

func setupEnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup-env",
		Usage: "interactively configure the schwab_* environment variables",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "show",
				Usage: "display current values without prompting",
			},
		},
		Action: setupEnvAction,
	}
}

func setupEnvAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("show") {
		if err := envstore.Show(os.Stdout); err != nil {
			return exitError(err)
		}
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return exitError(fmt.Errorf("%w: setup-env needs an interactive terminal (use --show to display values)", envstore.ErrInvalid))
	}

	current, _ := envstore.Current()

	apiKey, err := promptValue("Schwab API key", current.APIKey, true, nil)
	if err != nil {
		return exitError(err)
	}
	appSecret, err := promptValue("Schwab app secret", current.AppSecret, true, nil)
	if err != nil {
		return exitError(err)
	}
	callbackURL, err := promptValue("Callback URL", current.CallbackURL, false, envstore.ValidateCallback)
	if err != nil {
		return exitError(err)
	}
	tokenPath, err := promptValue("Token file path", current.TokenPath, false, nil)
	if err != nil {
		return exitError(err)
	}

	values := envstore.Values{
		APIKey:      apiKey,
		AppSecret:   appSecret,
		CallbackURL: callbackURL,
		TokenPath:   tokenPath,
	}
	if err := envstore.Persist(values); err != nil {
		return exitError(err)
	}

	fmt.Println("Environment saved. Open a new shell (or re-source your profile) for other programs to pick it up.")
	return nil
}

// promptValue asks for one configuration value, pre-filling the current one.
// Secrets are masked while typing.
func promptValue(label, current string, secret bool, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("value is required")
			}
			if validate != nil {
				return validate(input)
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt aborted: %w", err)
	}
	return value, nil
}
