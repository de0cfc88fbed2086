package tariff

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewHTTPClient creates an HTTP client with a bounded timeout and optional
// TLS configuration. Set skipTLSVerify for servers with misconfigured
// certificate chains.
func NewHTTPClient(timeout time.Duration, skipTLSVerify bool) *http.Client {
	transport := &http.Transport{}

	if skipTLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DefaultHTTPClient returns a standard HTTP client with a 30s timeout. The
// open-data portal can be slow under load; a hung request must never block
// a caller indefinitely.
func DefaultHTTPClient() *http.Client {
	return NewHTTPClient(30*time.Second, false)
}
