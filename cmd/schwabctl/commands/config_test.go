package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/neusse/schwabctl/internal/app"
)

func credentialEnviron(t *testing.T, extra ...string) func() []string {
	t.Helper()
	environ := []string{
		"schwab_api_key=env-key",
		"schwab_app_secret=env-secret",
		"schwab_callback_url=https://127.0.0.1:8182",
		"schwab_token_path=" + filepath.Join(t.TempDir(), "token.json"),
	}
	environ = append(environ, extra...)
	return func() []string { return environ }
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	cfg, err := loadConfig("", nil, credentialEnviron(t))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Schwab.APIKey)
	assert.Equal(t, "env-secret", cfg.Schwab.AppSecret)
	assert.Equal(t, "https://127.0.0.1:8182", cfg.Schwab.CallbackURL)
	assert.NotEmpty(t, cfg.Schwab.TokenPath)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, credentialEnviron(t))
	require.NoError(t, err)

	assert.Equal(t, app.DefaultConfigBaseURL, cfg.Schwab.BaseURL)
	assert.Equal(t, cfg.Schwab.BaseURL, cfg.Schwab.AuthBaseURL)
	assert.Equal(t, app.DefaultConfigLogFormat, cfg.LogFormat)
	assert.Equal(t, app.TokenStorageTypeFile, cfg.Auth.Storage)
	assert.Equal(t, app.DefaultConfigAuthTimeout, cfg.Auth.Timeout)
}

func TestLoadConfigPrefixedVariables(t *testing.T) {
	cfg, err := loadConfig("", nil, credentialEnviron(t,
		"SCHWABCTL_LOG_FORMAT=json",
		"SCHWABCTL_AUTH__TIMEOUT=90s",
		"SCHWABCTL_SCHWAB__BASE_URL=https://sandbox.example.com",
	))
	require.NoError(t, err)

	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "1m30s", cfg.Auth.Timeout.String())
	assert.Equal(t, "https://sandbox.example.com", cfg.Schwab.BaseURL)
}

func TestLoadConfigIgnoresUnrelatedVariables(t *testing.T) {
	cfg, err := loadConfig("", nil, credentialEnviron(t,
		"PATH=/usr/bin",
		"HOME=/home/nobody",
	))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Schwab.APIKey)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_format = "json"

[schwab]
base_url = "https://file.example.com"

[auth]
storage = "file"
timeout = "2m"
`), 0644))

	cfg, err := loadConfig(path, nil, credentialEnviron(t))
	require.NoError(t, err)

	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "https://file.example.com", cfg.Schwab.BaseURL)
	assert.Equal(t, "2m0s", cfg.Auth.Timeout.String())
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[schwab]
base_url = "https://file.example.com"
`), 0644))

	cfg, err := loadConfig(path, nil, credentialEnviron(t,
		"SCHWABCTL_SCHWAB__BASE_URL=https://env.example.com",
	))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Schwab.BaseURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil, credentialEnviron(t))
	assert.ErrorContains(t, err, "loading config file")
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := loadConfig("", nil, credentialEnviron(t, "SCHWABCTL_LOG_FORMAT=xml"))
	assert.ErrorContains(t, err, "invalid config")

	_, err = loadConfig("", nil, func() []string {
		return []string{"schwab_callback_url=http://insecure.example.com"}
	})
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	var cfg *app.Config
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-format"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var err error
			cfg, err = loadConfig("", cmd, credentialEnviron(t, "SCHWABCTL_LOG_FORMAT=text"))
			return err
		},
	}

	require.NoError(t, cmd.Run(context.Background(), []string{"test", "--log-format", "json"}))
	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
}

func TestLoadConfigUnsetFlagsKeepPrecedence(t *testing.T) {
	var cfg *app.Config
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-format", Value: "text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var err error
			cfg, err = loadConfig("", cmd, credentialEnviron(t, "SCHWABCTL_LOG_FORMAT=json"))
			return err
		},
	}

	require.NoError(t, cmd.Run(context.Background(), []string{"test"}))
	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat, "flag defaults must not mask the environment")
}
