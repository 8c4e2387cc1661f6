package authflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Acquire obtains a brand-new token artifact via the interactive
// authorization-code flow.
//
// Any pre-existing artifact is deleted first so acquisition always starts
// from a clean state; if the exchange fails afterwards the location stays
// empty. The authorization URL is printed, never opened automatically.
func Acquire(ctx context.Context, f Flow) (*Artifact, error) {
	if f.Store == nil {
		return nil, fmt.Errorf("acquire: no token store configured")
	}
	if f.In == nil {
		f.In = os.Stdin
	}
	if f.Out == nil {
		f.Out = os.Stdout
	}

	// Clean state first. A stale or corrupt artifact must never be
	// silently reused or merged with the new one.
	if err := f.Store.Delete(ctx); err != nil {
		return nil, fmt.Errorf("deleting previous token artifact: %w", err)
	}

	conf := f.OAuthConfig()
	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state)

	fmt.Fprintf(f.Out, "Open this URL in your browser and log in to Schwab:\n\n  %s\n\n", authURL)
	fmt.Fprintf(f.Out, "After approving access you will be redirected to %s.\n", f.CallbackURL)
	fmt.Fprintf(f.Out, "Paste the full redirected URL here (or let the local listener catch it):\n> ")

	code, err := waitForCode(ctx, f, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		// Previous artifact is already gone; the user must re-run
		// acquisition to close the window.
		return nil, fmt.Errorf("%w: exchanging authorization code: %v", ErrAcquisitionFailed, err)
	}

	art := NewArtifact(tok, f.now())
	payload, err := art.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}
	if err := f.Store.Write(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w: writing token artifact: %v", ErrAcquisitionFailed, err)
	}

	return art, nil
}

// authCode is the outcome of one of the two code sources.
type authCode struct {
	code  string
	state string
	err   error
}

// waitForCode blocks on the single suspension point of the flow: the local
// callback listener (when the callback URL is loopback) and a manual paste
// reader run concurrently, and the first result wins. f.Timeout bounds the
// wait; zero waits indefinitely.
func waitForCode(ctx context.Context, f Flow, wantState string) (string, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	results := make(chan authCode, 2)

	go func() {
		results <- readPastedURL(f.In)
	}()

	if host, ok := loopbackCallback(f.CallbackURL); ok {
		stop, err := listenForCode(ctx, f.CallbackURL, host, results)
		if err != nil {
			fmt.Fprintf(f.Out, "\nlocal callback listener unavailable (%v), paste the URL manually\n> ", err)
		} else {
			defer stop()
		}
	}

	select {
	case res := <-results:
		if res.err != nil {
			return "", res.err
		}
		if res.state != wantState {
			return "", fmt.Errorf("state mismatch in redirected URL")
		}
		return res.code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization code: %w", ctx.Err())
	}
}

// readPastedURL reads one line from the interactive stream and extracts the
// authorization code and state from it.
func readPastedURL(in io.Reader) authCode {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return authCode{err: fmt.Errorf("reading redirected URL: %w", err)}
		}
		return authCode{err: fmt.Errorf("no redirected URL provided")}
	}
	return parseRedirect(strings.TrimSpace(scanner.Text()))
}

// parseRedirect extracts code and state from a redirected callback URL.
func parseRedirect(raw string) authCode {
	u, err := url.Parse(raw)
	if err != nil {
		return authCode{err: fmt.Errorf("parsing redirected URL: %w", err)}
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return authCode{err: fmt.Errorf("authorization denied: %s", e)}
	}
	code := q.Get("code")
	if code == "" {
		return authCode{err: fmt.Errorf("redirected URL carries no authorization code")}
	}
	return authCode{code: code, state: q.Get("state")}
}

// loopbackCallback reports whether the callback URL points at a loopback
// host, returning the host:port to listen on.
func loopbackCallback(callback string) (string, bool) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", false
	}
	switch u.Hostname() {
	case "127.0.0.1", "localhost", "::1":
	default:
		return "", false
	}
	port := u.Port()
	if port == "" {
		port = "443"
	}
	// JoinHostPort brackets IPv6 hosts so net.Listen accepts the address.
	return net.JoinHostPort(u.Hostname(), port), true
}
