// Package pkgcheck inspects the binary's module dependencies and compares
// them against the latest published versions on the Go module proxy.
package pkgcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// DefaultProxyURL is the public Go module proxy.
const DefaultProxyURL = "https://proxy.golang.org"

// Module is one dependency of the running binary.
type Module struct {
	Path    string
	Version string
	// Latest is filled by CheckLatest; empty until then.
	Latest string
}

// Stale reports whether a newer version than the built one is published.
func (m Module) Stale() bool {
	return m.Latest != "" && semver.Compare(m.Version, m.Latest) < 0
}

// Installed returns the module dependencies baked into the running binary.
func Installed() ([]Module, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, fmt.Errorf("binary carries no build info (built without module support?)")
	}

	modules := make([]Module, 0, len(info.Deps))
	for _, dep := range info.Deps {
		m := *dep
		for m.Replace != nil {
			m = *m.Replace
		}
		modules = append(modules, Module{Path: m.Path, Version: m.Version})
	}
	return modules, nil
}

// Checker queries a module proxy for latest versions.
type Checker struct {
	ProxyURL   string
	HTTPClient *http.Client
}

// NewChecker returns a Checker against the given proxy, or DefaultProxyURL if
// empty.
func NewChecker(proxyURL string) *Checker {
	if proxyURL == "" {
		proxyURL = DefaultProxyURL
	}
	return &Checker{
		ProxyURL:   strings.TrimSuffix(proxyURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckLatest fills Latest for every module, querying the proxy's @latest
// endpoint. Lookup failures are reported per module, not fatal for the batch.
func (c *Checker) CheckLatest(ctx context.Context, modules []Module) []error {
	var errs []error
	for i := range modules {
		latest, err := c.Latest(ctx, modules[i].Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", modules[i].Path, err))
			continue
		}
		modules[i].Latest = latest
	}
	return errs
}

// Latest returns the latest published version of a module path.
func (c *Checker) Latest(ctx context.Context, path string) (string, error) {
	escaped, err := module.EscapePath(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProxyURL+"/"+escaped+"/@latest", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("module proxy: %s", resp.Status)
	}

	var payload struct {
		Version string `json:"Version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding proxy response: %w", err)
	}
	return payload.Version, nil
}
