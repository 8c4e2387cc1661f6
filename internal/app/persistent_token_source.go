package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/neusse/schwabctl/internal/authflow"
)

// PersistentTokenSource wraps an oauth2.TokenSource with artifact
// persistence: the stored artifact seeds the source, refreshes happen
// transparently through the oauth2 transport, and a minted access credential
// is written back so the next invocation starts warm.
// Initialization is deferred to avoid I/O during startup.
type PersistentTokenSource struct {
	flow authflow.Flow

	tokenSource func() (oauth2.TokenSource, error)

	artifact   atomic.Pointer[authflow.Artifact]
	lastAccess atomic.Pointer[string]
	writeMu    sync.Mutex
}

// Compile-time check to ensure PersistentTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*PersistentTokenSource)(nil)

// NewPersistentTokenSource creates a PersistentTokenSource.
// No I/O is performed until the first Token call.
func NewPersistentTokenSource(flow authflow.Flow) (*PersistentTokenSource, error) {
	if flow.Store == nil {
		return nil, fmt.Errorf("missing token store")
	}

	p := &PersistentTokenSource{
		flow: flow,
	}

	p.tokenSource = sync.OnceValues(p.createTokenSource)

	return p, nil
}

// createTokenSource performs one-time initialization of the TokenSource.
func (p *PersistentTokenSource) createTokenSource() (oauth2.TokenSource, error) {
	// oauth2.TokenSource.Token() has no context parameter (legacy
	// interface limitation), so the initial read uses the background
	// context.
	ctx := context.Background()

	art, err := authflow.Load(ctx, p.flow)
	if err != nil {
		return nil, err
	}

	p.artifact.Store(art)
	access := art.Token.AccessToken
	p.lastAccess.Store(&access)

	conf := p.flow.OAuthConfig()
	return conf.TokenSource(ctx, art.OAuth2()), nil
}

// Token returns a valid access token, refreshing through the stored refresh
// credential if necessary and persisting the updated artifact.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	ts, err := p.tokenSource()
	if err != nil {
		return nil, err
	}

	freshToken, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token from token source: %w", err)
	}

	// Hot path: lock-free atomic read for minimal contention
	lastPtr := p.lastAccess.Load()
	last := ""
	if lastPtr != nil {
		last = *lastPtr
	}

	// Persist the artifact when the access credential changed.
	// oauth2.TokenSource.Token() is contractually thread-safe, so
	// concurrent calls receive identical tokens; worst case multiple
	// goroutines write the same artifact.
	if freshToken.AccessToken != "" && freshToken.AccessToken != last {
		p.writeMu.Lock()
		ctx := context.Background()
		if art := p.artifact.Load(); art != nil {
			next := art.WithRefreshed(freshToken)
			if payload, err := next.Encode(); err != nil {
				slog.ErrorContext(ctx, "failed to encode refreshed token artifact", "error", err)
			} else if err := p.flow.Store.Write(ctx, payload); err != nil {
				// Write failure is data loss: the access token still works,
				// but the next invocation refreshes again from the old
				// artifact.
				slog.ErrorContext(ctx, "failed to persist refreshed token artifact", "error", err)
			} else {
				// Update caches only on success so the write is retried
				// on the next call otherwise.
				p.artifact.Store(next)
				access := freshToken.AccessToken
				p.lastAccess.Store(&access)
			}
		}
		p.writeMu.Unlock()
	}

	return freshToken, nil
}
