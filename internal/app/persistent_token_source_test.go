package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/neusse/schwabctl/internal/authflow"
)

// fakeProvider serves the OAuth token endpoint; tokenHits counts refreshes.
type fakeProvider struct {
	tokenHits   atomic.Int64
	accessToken string
}

func newFakeProvider(t *testing.T, accessToken string) (*fakeProvider, *httptest.Server) {
	t.Helper()
	p := &fakeProvider{accessToken: accessToken}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": p.accessToken,
			"token_type":   "Bearer",
			"expires_in":   1800,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return p, srv
}

func providerConfig(t *testing.T, srv *httptest.Server) *Config {
	t.Helper()
	cfg := completeConfig(t)
	cfg.Schwab.BaseURL = srv.URL
	cfg.Schwab.AuthBaseURL = srv.URL
	return cfg
}

func seedValidArtifact(t *testing.T, cfg *Config, access string) *authflow.Artifact {
	t.Helper()
	return seedArtifactExpiring(t, cfg, access, time.Now().Add(time.Hour))
}

func seedArtifactExpiring(t *testing.T, cfg *Config, access string, expiry time.Time) *authflow.Artifact {
	t.Helper()
	art := authflow.NewArtifact(&oauth2.Token{
		AccessToken:  access,
		RefreshToken: "seed-refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, time.Now())

	store, err := cfg.NewTokenStore()
	require.NoError(t, err)
	payload, err := art.Encode()
	require.NoError(t, err)
	require.NoError(t, store.Write(context.Background(), payload))
	return art
}

func TestTokenValidArtifactNoNetwork(t *testing.T) {
	provider, srv := newFakeProvider(t, "unused")
	cfg := providerConfig(t, srv)
	seedValidArtifact(t, cfg, "seed-access")

	flow, err := cfg.Flow(nil, nil)
	require.NoError(t, err)
	ts, err := NewPersistentTokenSource(flow)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "seed-access", tok.AccessToken)
	assert.Equal(t, int64(0), provider.tokenHits.Load())
}

func TestTokenRefreshesAndPersists(t *testing.T) {
	provider, srv := newFakeProvider(t, "minted-access")
	cfg := providerConfig(t, srv)
	seedArtifactExpiring(t, cfg, "stale-access", time.Now().Add(-time.Minute))

	flow, err := cfg.Flow(nil, nil)
	require.NoError(t, err)
	ts, err := NewPersistentTokenSource(flow)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "minted-access", tok.AccessToken)
	assert.Equal(t, int64(1), provider.tokenHits.Load())

	// Disk copy carries the new access credential, same refresh credential.
	payload, err := flow.Store.Read(context.Background())
	require.NoError(t, err)
	stored, err := authflow.DecodeArtifact(payload)
	require.NoError(t, err)
	assert.Equal(t, "minted-access", stored.Token.AccessToken)
	assert.Equal(t, "seed-refresh", stored.Token.RefreshToken)

	// Second call reuses the minted credential.
	tok2, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "minted-access", tok2.AccessToken)
	assert.Equal(t, int64(1), provider.tokenHits.Load())
}

func TestTokenMissingArtifact(t *testing.T) {
	_, srv := newFakeProvider(t, "unused")
	cfg := providerConfig(t, srv)

	flow, err := cfg.Flow(nil, nil)
	require.NoError(t, err)
	ts, err := NewPersistentTokenSource(flow)
	require.NoError(t, err)

	_, err = ts.Token()
	assert.ErrorIs(t, err, authflow.ErrTokenMissing)

	// Initialization failure is sticky, not retried mid-process.
	_, err = ts.Token()
	assert.ErrorIs(t, err, authflow.ErrTokenMissing)
}

func TestNewPersistentTokenSourceRequiresStore(t *testing.T) {
	_, err := NewPersistentTokenSource(authflow.Flow{})
	assert.Error(t, err)
}
