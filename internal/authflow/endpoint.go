package authflow

import (
	"io"
	"time"

	"golang.org/x/oauth2"

	"github.com/neusse/schwabctl/internal/tokenstore"
)

// DefaultAuthBaseURL is the base URL of the Schwab OAuth endpoints.
const DefaultAuthBaseURL = "https://api.schwabapi.com"

// Endpoint returns the Schwab OAuth2 endpoints under the given base URL.
// Schwab uses standard form-encoded token requests with HTTP Basic client
// authentication.
func Endpoint(baseURL string) oauth2.Endpoint {
	if baseURL == "" {
		baseURL = DefaultAuthBaseURL
	}
	return oauth2.Endpoint{
		AuthURL:   baseURL + "/v1/oauth/authorize",
		TokenURL:  baseURL + "/v1/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}

// Flow carries everything the acquisition and refresh flows need. The zero
// values of In, Out, and Now are replaced with os.Stdin, os.Stdout, and
// time.Now by the flows.
type Flow struct {
	// APIKey and AppSecret are the OAuth client credentials.
	APIKey    string
	AppSecret string

	// CallbackURL is the registered redirect URL. When it points at a
	// loopback host, acquisition additionally starts a local callback
	// listener.
	CallbackURL string

	// Store holds the token artifact.
	Store tokenstore.TokenStore

	// AuthBaseURL overrides the OAuth endpoint base URL. Empty means
	// DefaultAuthBaseURL.
	AuthBaseURL string

	// Timeout bounds the wait for the authorization code during
	// acquisition. Zero or negative waits indefinitely.
	Timeout time.Duration

	// In and Out are the interactive streams used by acquisition.
	In  io.Reader
	Out io.Writer

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// OAuthConfig builds the oauth2 client configuration for the flow.
func (f Flow) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.APIKey,
		ClientSecret: f.AppSecret,
		RedirectURL:  f.CallbackURL,
		Endpoint:     Endpoint(f.AuthBaseURL),
	}
}

func (f Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
