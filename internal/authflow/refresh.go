package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"

	"github.com/neusse/schwabctl/internal/tokenstore"
)

// Bounded retry policy for the refresh exchange. Vars so tests can shorten
// the backoff.
var (
	refreshAttempts uint = 3
	refreshBackoff       = 2 * time.Second
)

// Load reads and decodes the stored artifact. A missing artifact maps to
// ErrTokenMissing so callers can point the user at fetch-new-token.
func Load(ctx context.Context, f Flow) (*Artifact, error) {
	payload, err := f.Store.Read(ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: run 'schwabctl fetch-new-token' first", ErrTokenMissing)
		}
		return nil, err
	}
	return DecodeArtifact(payload)
}

// Refresh extends the session's validity using the stored refresh credential.
//
// When the access credential is still valid beyond the safety margin and
// force is false, the call is a no-op and the artifact is not touched.
// Transient exchange failures are retried with constant backoff
// (refreshAttempts tries); a rejected refresh credential fails immediately
// with ErrRefreshRejected and leaves the artifact on disk untouched —
// deleting is reserved for an explicit Acquire.
func Refresh(ctx context.Context, f Flow, force bool) (*Artifact, error) {
	art, err := Load(ctx, f)
	if err != nil {
		return nil, err
	}

	if !force && art.Valid(f.now()) {
		return art, nil
	}

	if art.Token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: artifact carries no refresh credential, run 'schwabctl fetch-new-token'", ErrRefreshRejected)
	}

	tok, err := exchangeRefresh(ctx, f, art.Token.RefreshToken)
	if err != nil {
		return nil, err
	}

	next := art.WithRefreshed(tok)
	payload, err := next.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if err := f.Store.Write(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w: writing token artifact: %v", ErrRefreshFailed, err)
	}
	return next, nil
}

// exchangeRefresh performs the refresh-token grant with bounded retries.
func exchangeRefresh(ctx context.Context, f Flow, refreshToken string) (*oauth2.Token, error) {
	conf := f.OAuthConfig()

	operation := func() (*oauth2.Token, error) {
		// A token carrying only the refresh credential forces the
		// oauth2 transport to hit the token endpoint.
		src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		tok, err := src.Token()
		if err != nil {
			if rejected(err) {
				return nil, backoff.Permanent(fmt.Errorf("%w: run 'schwabctl fetch-new-token' to re-authorize", ErrRefreshRejected))
			}
			return nil, err
		}
		return tok, nil
	}

	tok, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(refreshBackoff)),
		backoff.WithMaxTries(refreshAttempts),
	)
	if err != nil {
		if errors.Is(err, ErrRefreshRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrRefreshFailed, refreshAttempts, err)
	}
	return tok, nil
}

// rejected reports whether the token endpoint definitively refused the
// refresh credential, as opposed to a transient failure worth retrying.
func rejected(err error) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) || rerr.Response == nil {
		return false
	}
	switch rerr.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
