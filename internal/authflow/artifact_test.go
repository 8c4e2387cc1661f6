package authflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestArtifactEncodeDecode(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := (&oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       now.Add(30 * time.Minute),
	}).WithExtra(map[string]interface{}{"scope": "api"})

	art := NewArtifact(tok, now)
	payload, err := art.Encode()
	require.NoError(t, err)

	// The wire shape other tooling expects
	assert.Contains(t, payload, `"creation_timestamp":1700000000`)
	assert.Contains(t, payload, `"access_token":"access-1"`)
	assert.Contains(t, payload, `"expires_at":`)

	got, err := DecodeArtifact(payload)
	require.NoError(t, err)
	assert.Equal(t, art, got)
	assert.Equal(t, "api", got.Token.Scope)
}

func TestDecodeArtifactRejectsEmpty(t *testing.T) {
	_, err := DecodeArtifact(`{"creation_timestamp":1,"token":{}}`)
	assert.Error(t, err)

	_, err = DecodeArtifact(`not json`)
	assert.Error(t, err)
}

func TestArtifactValidMargin(t *testing.T) {
	now := time.Unix(1700000000, 0)
	art := &Artifact{Token: tokenRecord{AccessToken: "a"}}

	art.Token.ExpiresAt = now.Add(ExpiryMargin + time.Second).Unix()
	assert.True(t, art.Valid(now), "beyond the margin is usable")

	art.Token.ExpiresAt = now.Add(ExpiryMargin).Unix()
	assert.False(t, art.Valid(now), "exactly at the margin is expired")

	art.Token.ExpiresAt = now.Add(-time.Hour).Unix()
	assert.False(t, art.Valid(now))

	empty := &Artifact{Token: tokenRecord{ExpiresAt: now.Add(time.Hour).Unix()}}
	assert.False(t, empty.Valid(now), "no access credential means not usable")
}

func TestWithRefreshedPreservesIdentity(t *testing.T) {
	art := &Artifact{
		CreationTimestamp: 1700000000,
		Token: tokenRecord{
			AccessToken:  "old-access",
			RefreshToken: "keep-me",
			TokenType:    "Bearer",
			Scope:        "api",
			ExpiresAt:    1700001800,
		},
	}

	next := art.WithRefreshed(&oauth2.Token{
		AccessToken: "new-access",
		Expiry:      time.Unix(1700005400, 0),
	})

	assert.Equal(t, int64(1700000000), next.CreationTimestamp)
	assert.Equal(t, "new-access", next.Token.AccessToken)
	assert.Equal(t, "keep-me", next.Token.RefreshToken)
	assert.Equal(t, "api", next.Token.Scope)
	assert.Equal(t, int64(1700005400), next.Token.ExpiresAt)

	// Original untouched
	assert.Equal(t, "old-access", art.Token.AccessToken)
}

func TestWithRefreshedRotation(t *testing.T) {
	art := &Artifact{Token: tokenRecord{AccessToken: "a", RefreshToken: "old-refresh"}}

	next := art.WithRefreshed(&oauth2.Token{
		AccessToken:  "b",
		RefreshToken: "rotated",
	})
	assert.Equal(t, "rotated", next.Token.RefreshToken)
}

func TestArtifactOAuth2(t *testing.T) {
	art := &Artifact{Token: tokenRecord{
		AccessToken:  "a",
		RefreshToken: "r",
		TokenType:    "Bearer",
		ExpiresAt:    1700001800,
	}}
	tok := art.OAuth2()
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.Equal(t, time.Unix(1700001800, 0), tok.Expiry)
}
