// Package trust builds the HTTP client the console uses to reach the
// gateway: extra CA roots, an optional client certificate and an optional
// bearer token.
package trust

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Options configures certificate loading and HTTP client behavior
type Options struct {
	CACertFile     string // PEM bundle, falls back to SSL_CERT_FILE
	CACertDir      string // directories of *.pem/*.crt, falls back to SSL_CERT_DIR
	ClientCertFile string
	ClientKeyFile  string
	// Token is sent as "Authorization: Bearer <token>" on every request
	Token   string
	Timeout time.Duration
	MinTLS  uint16
}

// LoadPool returns the system roots plus any configured extras
func LoadPool(opts Options) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if f := first(opts.CACertFile, os.Getenv("SSL_CERT_FILE")); f != "" {
		if err := appendFile(pool, f); err != nil {
			return nil, err
		}
	}

	explicit := opts.CACertDir != ""
	d := first(opts.CACertDir, os.Getenv("SSL_CERT_DIR"))
	if d == "" {
		return pool, nil
	}
	dirs := strings.Split(d, ":")
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			// one explicit directory must exist; lists and env paths may be partial
			if explicit && len(dirs) == 1 {
				return nil, fmt.Errorf("failed to load certificates from directory %s: %w", dir, err)
			}
			continue
		}
		err := filepath.WalkDir(dir, func(p string, e fs.DirEntry, werr error) error {
			if werr != nil {
				return werr
			}
			if e.IsDir() || !hasSuffix(p, ".pem", ".crt") {
				return nil
			}
			return appendFile(pool, p)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load certificates from directory %s: %w", dir, err)
		}
	}
	return pool, nil
}

func appendFile(pool *x509.CertPool, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read CA cert file %s: %w", path, err)
	}
	if !pool.AppendCertsFromPEM(b) {
		return fmt.Errorf("no valid certificates found in %s", path)
	}
	return nil
}

// LoadClientCertificate loads a key pair for mutual TLS. It returns nil
// when either path is empty.
func LoadClientCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	if certFile == "" || keyFile == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}
	return &cert, nil
}

// NewHTTPClient builds a client from opts
func NewHTTPClient(opts Options) (*http.Client, error) {
	pool, err := LoadPool(opts)
	if err != nil {
		return nil, err
	}
	cert, err := LoadClientCertificate(opts.ClientCertFile, opts.ClientKeyFile)
	if err != nil {
		return nil, err
	}
	return NewHTTP(pool, cert, opts), nil
}

// NewHTTP builds a client with the given roots and client certificate
func NewHTTP(pool *x509.CertPool, clientCert *tls.Certificate, opts Options) *http.Client {
	minTLS := opts.MinTLS
	if minTLS == 0 {
		minTLS = tls.VersionTLS12
	}
	tlsConfig := &tls.Config{RootCAs: pool, MinVersion: minTLS}
	if clientCert != nil {
		tlsConfig.Certificates = []tls.Certificate{*clientCert}
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsConfig,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
	}

	if opts.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   rt,
		}
	}
	return &http.Client{Transport: rt, Timeout: opts.Timeout}
}

// first returns the first non-blank string
func first(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// hasSuffix checks s against suff case-insensitively
func hasSuffix(s string, suff ...string) bool {
	s = strings.ToLower(s)
	for _, x := range suff {
		if strings.HasSuffix(s, x) {
			return true
		}
	}
	return false
}
