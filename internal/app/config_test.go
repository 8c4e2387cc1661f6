package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neusse/schwabctl/internal/envstore"
	"github.com/neusse/schwabctl/internal/tokenstore"
)

func completeConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		Schwab: SchwabConfig{
			APIKey:      "key",
			AppSecret:   "secret",
			CallbackURL: "https://127.0.0.1:8182",
			TokenPath:   filepath.Join(t.TempDir(), "token.json"),
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, DefaultConfigBaseURL, cfg.Schwab.BaseURL)
	assert.Equal(t, cfg.Schwab.BaseURL, cfg.Schwab.AuthBaseURL, "auth endpoints default to the API base")
	assert.Equal(t, TokenStorageTypeFile, cfg.Auth.Storage)
	assert.Equal(t, 5*time.Minute, cfg.Auth.Timeout)
}

func TestApplyDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{
		LogFormat: LogFormatJSON,
		Schwab: SchwabConfig{
			BaseURL:     "https://api.example.com",
			AuthBaseURL: "https://auth.example.com",
		},
		Auth: AuthConfig{Timeout: time.Minute},
	}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "https://auth.example.com", cfg.Schwab.AuthBaseURL)
	assert.Equal(t, time.Minute, cfg.Auth.Timeout)
}

func TestApplyDefaultsNegativeTimeoutDisablesBound(t *testing.T) {
	cfg := Config{Auth: AuthConfig{Timeout: -1}}
	require.NoError(t, cfg.ApplyDefaults())
	assert.Equal(t, time.Duration(-1), cfg.Auth.Timeout, "negative means wait indefinitely, not the default")
}

func TestValidate(t *testing.T) {
	cfg := completeConfig(t)
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.LogFormat = "xml"
	assert.ErrorIs(t, bad.Validate(), envstore.ErrInvalid)

	bad = *cfg
	bad.Auth.Storage = "vault"
	assert.ErrorIs(t, bad.Validate(), envstore.ErrInvalid)

	bad = *cfg
	bad.Schwab.CallbackURL = "http://127.0.0.1:8182"
	assert.ErrorIs(t, bad.Validate(), envstore.ErrInvalid)

	bad = *cfg
	bad.Schwab.TokenPath = ""
	assert.ErrorIs(t, bad.Validate(), envstore.ErrInvalid, "file storage with credentials needs a token path")
}

func TestValidateAllowsEmptyCredentials(t *testing.T) {
	// Commands like setup-env run before credentials exist.
	var cfg Config
	require.NoError(t, cfg.ApplyDefaults())
	assert.NoError(t, cfg.Validate())
}

func TestMissingCredentialsOrdered(t *testing.T) {
	cfg := Config{Schwab: SchwabConfig{AppSecret: "only-this"}}
	assert.Equal(t, []string{
		envstore.KeyAPIKey,
		envstore.KeyCallbackURL,
		envstore.KeyTokenPath,
	}, cfg.MissingCredentials())

	full := completeConfig(t)
	assert.Empty(t, full.MissingCredentials())
}

func TestRequireCredentials(t *testing.T) {
	var cfg Config
	err := cfg.RequireCredentials()
	require.ErrorIs(t, err, envstore.ErrMissing)
	assert.Contains(t, err.Error(), "setup-env")

	assert.NoError(t, completeConfig(t).RequireCredentials())
}

func TestNewTokenStore(t *testing.T) {
	cfg := completeConfig(t)
	store, err := cfg.NewTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &tokenstore.FileStore{}, store)

	cfg.Auth.Storage = "vault"
	_, err = cfg.NewTokenStore()
	assert.Error(t, err)
}

func TestFlowAssembly(t *testing.T) {
	cfg := completeConfig(t)
	flow, err := cfg.Flow(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Schwab.APIKey, flow.APIKey)
	assert.Equal(t, cfg.Schwab.CallbackURL, flow.CallbackURL)
	assert.Equal(t, cfg.Auth.Timeout, flow.Timeout)
	assert.NotNil(t, flow.Store)
}

func TestFlowRequiresCredentials(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.ApplyDefaults())
	_, err := cfg.Flow(nil, nil)
	assert.ErrorIs(t, err, envstore.ErrMissing)
}
