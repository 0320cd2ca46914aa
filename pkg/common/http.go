package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version returns the release version embedded at build time.
func Version() string {
	return strings.TrimSpace(version)
}

// UserAgent is sent on every request made through HTTPClient.
func UserAgent() string {
	return "hyponcloud-go/" + Version()
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip sets the User-Agent header on a clone of req and forwards it.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// the caller may reuse req so we must not mutate its headers
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client with a default user-agent set. The
// transport is cloned from http.DefaultTransport so that closing its idle
// connections does not affect other clients in the process.
func HTTPClient(timeout time.Duration) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		base = t.Clone()
	}
	return &http.Client{
		Transport: &userAgentTransport{
			transport: base,
			userAgent: UserAgent(),
		},
		Timeout: timeout,
	}
}

// CloseIdleConnections releases pooled connections held by a client created
// with HTTPClient.
func CloseIdleConnections(c *http.Client) {
	if t, ok := c.Transport.(*userAgentTransport); ok {
		if ci, ok := t.transport.(interface{ CloseIdleConnections() }); ok {
			ci.CloseIdleConnections()
		}
		return
	}
	c.CloseIdleConnections()
}
