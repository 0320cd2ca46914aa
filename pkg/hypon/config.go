package hypon

import (
	"github.com/hyponcloud/hyponcloud/pkg/common"
	"github.com/levenlabs/go-lflag"
)

// Configured returns a Client whose credentials and transport settings come
// from command-line flags. The Client is usable once lflag.Configure has run.
func Configured() *Client {
	c := New("", "")

	username := lflag.RequiredString("hypon-username", "Hypontech cloud account username")
	password := lflag.RequiredString("hypon-password", "Hypontech cloud account password")
	baseURL := lflag.String("hypon-base-url", DefaultBaseURL, "Hypontech cloud API root")
	timeout := lflag.Duration("hypon-timeout", DefaultTimeout, "Timeout of each request to the Hypontech cloud")
	backoff := lflag.Duration("hypon-backoff", DefaultBackoff, "Wait after a throttled or failed request before retrying")

	lflag.Do(func() {
		c.username = *username
		c.password = *password
		for _, opt := range []Option{
			WithBaseURL(*baseURL),
			WithTimeout(*timeout),
			WithRetryPolicy(RetryPolicy{MaxRetries: DefaultMaxRetries, Backoff: *backoff}),
		} {
			opt(c)
		}
		// the transport was built with the default timeout
		if c.ownsClient {
			c.client = common.HTTPClient(c.timeout)
		}
	})

	return c
}
