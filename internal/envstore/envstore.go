// Package envstore is the environment configuration store: it collects,
// validates, and persists the four schwab_* environment variables every other
// component reads, and can display them without mutation.
//
// Persistence targets the host's durable environment mechanism — a managed
// block in the user's shell profile on Unix-like systems, setx on Windows —
// so new shells pick the values up. The current process environment is
// updated as well for immediate use within the same invocation.
package envstore

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// The four environment variables of the external interface. The lowercase
// names are fixed; they are what the rest of the toolkit reads.
const (
	KeyAPIKey      = "schwab_api_key"
	KeyAppSecret   = "schwab_app_secret"
	KeyCallbackURL = "schwab_callback_url"
	KeyTokenPath   = "schwab_token_path"
)

// Keys lists the managed variables in display order.
var Keys = []string{KeyAPIKey, KeyAppSecret, KeyCallbackURL, KeyTokenPath}

// Configuration error taxonomy.
var (
	// ErrMissing indicates one or more of the managed variables is unset.
	ErrMissing = errors.New("configuration missing")

	// ErrInvalid indicates a value fails basic shape validation.
	ErrInvalid = errors.New("configuration invalid")

	// ErrPersist indicates the durable environment write failed.
	ErrPersist = errors.New("configuration persist error")
)

// Values is the configuration record.
type Values struct {
	APIKey      string
	AppSecret   string
	CallbackURL string
	TokenPath   string
}

// Current reads the managed variables from the process environment, returning
// the record and the names of any unset variables.
func Current() (Values, []string) {
	v := Values{
		APIKey:      os.Getenv(KeyAPIKey),
		AppSecret:   os.Getenv(KeyAppSecret),
		CallbackURL: os.Getenv(KeyCallbackURL),
		TokenPath:   os.Getenv(KeyTokenPath),
	}
	var missing []string
	for key, val := range map[string]string{
		KeyAPIKey:      v.APIKey,
		KeyAppSecret:   v.AppSecret,
		KeyCallbackURL: v.CallbackURL,
		KeyTokenPath:   v.TokenPath,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	sortKeys(missing)
	return v, missing
}

// Validate checks the record's shape: all fields non-empty, callback URL
// well-formed with a secure scheme, token path in an existing directory.
func (v Values) Validate() error {
	if v.APIKey == "" || v.AppSecret == "" || v.CallbackURL == "" || v.TokenPath == "" {
		_, missing := valuesMissing(v)
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	if err := ValidateCallback(v.CallbackURL); err != nil {
		return err
	}
	dir := filepath.Dir(v.TokenPath)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: token path directory %s does not exist", ErrInvalid, dir)
	}
	return nil
}

// ValidateCallback checks that the callback URL is well-formed and uses a
// secure scheme. Schwab only registers https callbacks.
func ValidateCallback(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: callback URL: %v", ErrInvalid, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: callback URL must use https, got %q", ErrInvalid, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: callback URL %q has no host", ErrInvalid, raw)
	}
	return nil
}

// Persist validates the record, writes it to the durable environment
// mechanism of the host OS, and updates the current process environment.
func Persist(v Values) error {
	if err := v.Validate(); err != nil {
		return err
	}

	if err := persistDurable(v); err != nil {
		return err
	}

	// New shells read the durable copy; this invocation keeps going with
	// the in-process one.
	for key, val := range v.pairs() {
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	return nil
}

// Show prints the current values without prompting or mutating anything.
// Secrets are partially masked. Fails with ErrMissing when variables are
// unset, listing which.
func Show(w io.Writer) error {
	v, missing := Current()
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (run 'schwabctl setup-env')", ErrMissing, strings.Join(missing, ", "))
	}
	fmt.Fprintf(w, "%s=%s\n", KeyAPIKey, Mask(v.APIKey))
	fmt.Fprintf(w, "%s=%s\n", KeyAppSecret, Mask(v.AppSecret))
	fmt.Fprintf(w, "%s=%s\n", KeyCallbackURL, v.CallbackURL)
	fmt.Fprintf(w, "%s=%s\n", KeyTokenPath, v.TokenPath)
	return nil
}

// Mask hides all but the first four characters of a secret.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func (v Values) pairs() map[string]string {
	return map[string]string{
		KeyAPIKey:      v.APIKey,
		KeyAppSecret:   v.AppSecret,
		KeyCallbackURL: v.CallbackURL,
		KeyTokenPath:   v.TokenPath,
	}
}

func valuesMissing(v Values) (Values, []string) {
	var missing []string
	for _, key := range Keys {
		if v.pairs()[key] == "" {
			missing = append(missing, key)
		}
	}
	return v, missing
}

func sortKeys(keys []string) {
	// Keep display order stable: the order of Keys.
	order := map[string]int{}
	for i, k := range Keys {
		order[k] = i
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && order[keys[j]] < order[keys[j-1]]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}
