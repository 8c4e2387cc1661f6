package authflow

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

// listenForCode starts a short-lived callback server on addr that intercepts
// the provider's redirect and delivers the authorization code to results.
//
// Browsers require the registered https callback to answer TLS, so the
// listener serves a throwaway self-signed certificate; the user has to click
// through the browser warning once, exactly as the original toolkit behaved.
// Plain http callbacks (tests, non-TLS setups) are served as-is.
func listenForCode(ctx context.Context, callback, addr string, results chan<- authCode) (stop func(), err error) {
	u, err := url.Parse(callback)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	if u.Scheme == "https" {
		cert, err := selfSignedCert(u.Hostname())
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("generating listener certificate: %w", err)
		}
		listener = tls.NewListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		res := parseRedirect(r.URL.String())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<html><body><h3>Authorization failed</h3><p>%s</p></body></html>", res.err)
		} else {
			fmt.Fprint(w, "<html><body><h3>Authorization received</h3><p>You can close this window and return to the terminal.</p></body></html>")
		}

		select {
		case results <- res:
		default: // a code already won the race
		}
	})

	server := &http.Server{
		Handler:     requestLogging(slog.Default())(mux),
		ReadTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	stop = func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("callback listener stopped with error", "error", err)
		}
	}
	return stop, nil
}

// requestLogging logs callback requests with method, path, status, and
// duration. Headers and bodies are never logged; the redirected URL carries
// the authorization code.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		LogRequestHeaders:  []string{},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: true,
	})
}

// selfSignedCert mints an in-memory ECDSA certificate for the loopback host,
// valid for 24 hours.
func selfSignedCert(host string) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: host},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{host}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
