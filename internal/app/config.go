package app

import (
	"fmt"
	"io"
	"log/slog"
	"os/user"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/neusse/schwabctl/internal/authflow"
	"github.com/neusse/schwabctl/internal/envstore"
	"github.com/neusse/schwabctl/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTLP LogFormat = "otlp"
)

// TokenStorageType represents the storage backends for the token artifact.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat   = LogFormatText
	DefaultConfigAuthStorage = TokenStorageTypeFile
	DefaultConfigAuthTimeout = 5 * time.Minute
	DefaultConfigBaseURL     = "https://api.schwabapi.com"

	keyringService = "schwabctl-token"
)

// SchwabConfig holds the provider credentials and endpoints. The four
// credential fields map 1:1 onto the schwab_* environment variables.
type SchwabConfig struct {
	APIKey      string `json:"api_key"`
	AppSecret   string `json:"app_secret"`
	CallbackURL string `json:"callback_url"`
	TokenPath   string `json:"token_path"`

	// BaseURL serves the trader and market-data APIs; AuthBaseURL serves
	// the OAuth endpoints. They differ only in tests.
	BaseURL     string `json:"base_url" validate:"required,url"`
	AuthBaseURL string `json:"auth_base_url" validate:"required,url"`
}

// AuthConfig describes how the token artifact is stored and how acquisition
// waits for the authorization code.
type AuthConfig struct {
	Storage     TokenStorageType `json:"storage" validate:"required,oneof=file keyring"`
	KeyringUser string           `json:"keyring_user,omitempty"`

	// Timeout bounds the acquisition wait for the authorization code.
	// Zero means unset and takes the default; negative waits indefinitely.
	Timeout time.Duration `json:"timeout"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level   `json:"log_level"`
	LogFormat LogFormat    `json:"log_format" validate:"omitempty,oneof=text json otlp"`
	Schwab    SchwabConfig `json:"schwab"`
	Auth      AuthConfig   `json:"auth"`
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Schwab.BaseURL == "" {
		c.Schwab.BaseURL = DefaultConfigBaseURL
	}
	if c.Schwab.AuthBaseURL == "" {
		c.Schwab.AuthBaseURL = c.Schwab.BaseURL
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultConfigAuthTimeout
	}

	if c.Auth.Storage == TokenStorageTypeKeyring && c.Auth.KeyringUser == "" {
		currentUser, err := user.Current()
		if err != nil {
			return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
		}
		c.Auth.KeyringUser = currentUser.Username
	}

	return nil
}

// Validate validates the configuration shape. Credential completeness is a
// separate concern, checked by RequireCredentials right before a flow runs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", envstore.ErrInvalid, err)
	}

	if c.Schwab.CallbackURL != "" {
		if err := envstore.ValidateCallback(c.Schwab.CallbackURL); err != nil {
			return err
		}
	}

	if c.Auth.Storage == TokenStorageTypeFile && c.Schwab.TokenPath == "" && c.Schwab.APIKey != "" {
		return fmt.Errorf("%w: file storage needs %s", envstore.ErrInvalid, envstore.KeyTokenPath)
	}

	return nil
}

// MissingCredentials returns the names of unset credential variables.
func (c *Config) MissingCredentials() []string {
	var missing []string
	for key, val := range map[string]string{
		envstore.KeyAPIKey:      c.Schwab.APIKey,
		envstore.KeyAppSecret:   c.Schwab.AppSecret,
		envstore.KeyCallbackURL: c.Schwab.CallbackURL,
		envstore.KeyTokenPath:   c.Schwab.TokenPath,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	// stable order for messages
	ordered := make([]string, 0, len(missing))
	for _, key := range envstore.Keys {
		for _, m := range missing {
			if m == key {
				ordered = append(ordered, key)
			}
		}
	}
	return ordered
}

// RequireCredentials fails with the configuration-missing error when any of
// the four credential variables is unset.
func (c *Config) RequireCredentials() error {
	if missing := c.MissingCredentials(); len(missing) > 0 {
		return fmt.Errorf("%w: %s (run 'schwabctl setup-env')", envstore.ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// NewTokenStore creates the configured artifact store.
func (c *Config) NewTokenStore() (tokenstore.TokenStore, error) {
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(c.Schwab.TokenPath)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringService, c.Auth.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Auth.Storage)
	}
}

// Flow assembles the authflow configuration shared by acquisition, refresh,
// and the persistent token source. in and out may be nil for non-interactive
// callers.
func (c *Config) Flow(in io.Reader, out io.Writer) (authflow.Flow, error) {
	if err := c.RequireCredentials(); err != nil {
		return authflow.Flow{}, err
	}

	store, err := c.NewTokenStore()
	if err != nil {
		return authflow.Flow{}, fmt.Errorf("creating token store: %w", err)
	}

	return authflow.Flow{
		APIKey:      c.Schwab.APIKey,
		AppSecret:   c.Schwab.AppSecret,
		CallbackURL: c.Schwab.CallbackURL,
		Store:       store,
		AuthBaseURL: c.Schwab.AuthBaseURL,
		Timeout:     c.Auth.Timeout,
		In:          in,
		Out:         out,
	}, nil
}
