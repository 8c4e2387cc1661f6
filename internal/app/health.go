package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/neusse/schwabctl/internal/authflow"
	"github.com/neusse/schwabctl/internal/schwab"
)

// ReferenceSymbol is the fixed read-only quote used to verify connectivity.
const ReferenceSymbol = "SPY"

// ErrConnectivity indicates the diagnostic API call failed even though the
// session itself was valid.
var ErrConnectivity = errors.New("connectivity check failed")

// StageResult is the outcome of one health-check stage. Err is nil on
// success.
type StageResult struct {
	Name string
	Err  error
}

// QuoteGetter is the slice of the Schwab client the connectivity stage needs.
type QuoteGetter interface {
	Quote(ctx context.Context, symbol string) (schwab.Quote, error)
}

// HealthChecker runs the end-to-end diagnostic: configuration, artifact,
// session, connectivity. NewClient is injectable for tests; nil means the
// real Schwab client.
type HealthChecker struct {
	Config    *Config
	NewClient func(ts oauth2.TokenSource) QuoteGetter
}

// Run executes the stages in order and stops at the first failure. The
// returned error is the failing stage's error, nil when every stage passed.
// Aside from an implicit refresh of an expired artifact (forced by force),
// the check mutates nothing.
func (h *HealthChecker) Run(ctx context.Context, force bool) ([]StageResult, error) {
	var results []StageResult
	fail := func(name string, err error) ([]StageResult, error) {
		results = append(results, StageResult{Name: name, Err: err})
		return results, err
	}
	pass := func(name string) {
		results = append(results, StageResult{Name: name})
	}

	// Stage 1: configuration completeness and shape.
	if err := h.Config.RequireCredentials(); err != nil {
		return fail("configuration", err)
	}
	if err := h.Config.Validate(); err != nil {
		return fail("configuration", err)
	}
	pass("configuration")

	// Stage 2: artifact present and current. Refresh loads the artifact
	// before touching the network, so a missing artifact fails here with
	// zero network calls.
	flow, err := h.Config.Flow(nil, nil)
	if err != nil {
		return fail("token", err)
	}
	if _, err := authflow.Refresh(ctx, flow, force); err != nil {
		return fail("token", err)
	}
	pass("token")

	// Stage 3: authenticated session construction (no I/O).
	ts, err := NewPersistentTokenSource(flow)
	if err != nil {
		return fail("session", err)
	}
	var client QuoteGetter
	if h.NewClient != nil {
		client = h.NewClient(ts)
	} else {
		client = schwab.New(ts, schwab.WithBaseURL(h.Config.Schwab.BaseURL))
	}
	pass("session")

	// Stage 4: one lightweight read-only call.
	if _, err := client.Quote(ctx, ReferenceSymbol); err != nil {
		return fail("connectivity", fmt.Errorf("%w: quote %s: %v", ErrConnectivity, ReferenceSymbol, err))
	}
	pass("connectivity")

	return results, nil
}
