package hypon

import (
	"net/http"
	"strings"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the Client use hc for every request. The caller keeps
// ownership of hc and Close will not release its connections.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
			c.ownsClient = false
		}
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds every network call, connection and response included
// (default: 10s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenValidity sets how long a token is trusted after login (default: 1h).
func WithTokenValidity(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.validity = d
		}
	}
}

// WithRetryPolicy sets the default retry policy for every operation.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p.normalize()
	}
}

// RequestOption modifies a single operation.
type RequestOption func(*RetryPolicy)

// Retries overrides the retry budget for one call. Zero disables retries.
func Retries(n int) RequestOption {
	return func(p *RetryPolicy) {
		p.MaxRetries = n
	}
}
