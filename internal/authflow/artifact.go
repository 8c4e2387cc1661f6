package authflow

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// ExpiryMargin is the safety margin applied when deciding whether an access
// credential is still usable. A credential expiring within the margin is
// treated as already expired.
const ExpiryMargin = 60 * time.Second

// tokenRecord mirrors the token object of the provider's token endpoint
// response (RFC 6749 §5.1) with the absolute expiry schwab-py adds.
type tokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Artifact is the persisted OAuth credential bundle. The JSON shape matches
// the token file schwab-py writes, so artifacts are interchangeable between
// the two toolchains.
type Artifact struct {
	CreationTimestamp int64       `json:"creation_timestamp"`
	Token             tokenRecord `json:"token"`
}

// NewArtifact builds an artifact from a token endpoint response.
func NewArtifact(tok *oauth2.Token, now time.Time) *Artifact {
	return &Artifact{
		CreationTimestamp: now.Unix(),
		Token: tokenRecord{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.TokenType,
			Scope:        scopeOf(tok),
			ExpiresIn:    int64(tok.ExpiresIn),
			ExpiresAt:    tok.Expiry.Unix(),
		},
	}
}

// WithRefreshed returns a copy of the artifact carrying the freshly minted
// access credential. The creation timestamp is preserved, and so is the
// refresh credential unless the provider rotated it.
func (a *Artifact) WithRefreshed(tok *oauth2.Token) *Artifact {
	next := *a
	next.Token.AccessToken = tok.AccessToken
	next.Token.ExpiresIn = int64(tok.ExpiresIn)
	next.Token.ExpiresAt = tok.Expiry.Unix()
	if tok.TokenType != "" {
		next.Token.TokenType = tok.TokenType
	}
	if tok.RefreshToken != "" {
		next.Token.RefreshToken = tok.RefreshToken
	}
	return &next
}

// OAuth2 converts the artifact into an oauth2.Token.
func (a *Artifact) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.Token.AccessToken,
		RefreshToken: a.Token.RefreshToken,
		TokenType:    a.Token.TokenType,
		Expiry:       time.Unix(a.Token.ExpiresAt, 0),
	}
}

// Valid reports whether the access credential is usable at the given time,
// applying ExpiryMargin.
func (a *Artifact) Valid(now time.Time) bool {
	if a.Token.AccessToken == "" {
		return false
	}
	return time.Unix(a.Token.ExpiresAt, 0).After(now.Add(ExpiryMargin))
}

// Encode serializes the artifact for storage.
func (a *Artifact) Encode() (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encoding token artifact: %w", err)
	}
	return string(data), nil
}

// DecodeArtifact parses a stored artifact payload.
func DecodeArtifact(payload string) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("decoding token artifact: %w", err)
	}
	if a.Token.AccessToken == "" && a.Token.RefreshToken == "" {
		return nil, fmt.Errorf("decoding token artifact: no credentials present")
	}
	return &a, nil
}

func scopeOf(tok *oauth2.Token) string {
	if s, ok := tok.Extra("scope").(string); ok {
		return s
	}
	return ""
}
