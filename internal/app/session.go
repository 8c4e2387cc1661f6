// Package app wires configuration, token lifecycle, and the API client into
// the one capability downstream commands consume: an authenticated session.
package app

import (
	"github.com/neusse/schwabctl/internal/schwab"
)

// NewSession returns an authenticated Schwab client for the configured
// account. Callers never see how acquisition or refresh works: the client's
// token source loads the stored artifact lazily, refreshes it when expired,
// and persists rotated credentials.
func NewSession(cfg *Config) (*schwab.Client, error) {
	flow, err := cfg.Flow(nil, nil)
	if err != nil {
		return nil, err
	}

	ts, err := NewPersistentTokenSource(flow)
	if err != nil {
		return nil, err
	}

	return schwab.New(ts, schwab.WithBaseURL(cfg.Schwab.BaseURL)), nil
}
