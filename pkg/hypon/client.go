package hypon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/common"
	"github.com/hyponcloud/hyponcloud/pkg/log"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the Hypontech cloud API root.
	DefaultBaseURL = "https://api.hypon.cloud/v2"

	// DefaultTimeout bounds every network call.
	DefaultTimeout = 10 * time.Second

	// DefaultTokenValidity is how long a token is trusted after login. The
	// cloud does not report an expiry so we assume an hour.
	DefaultTokenValidity = 3600 * time.Second

	// responses larger than this are treated as malformed
	maxResponseSize = 10 << 20
)

// Client talks to the Hypontech cloud on behalf of one account. It logs in
// lazily, caches the bearer token until it expires and retries throttled or
// failed requests according to its RetryPolicy.
//
// A Client is safe for concurrent use. Create one with New and release it
// with Close.
type Client struct {
	client     *http.Client
	ownsClient bool
	baseURL    string
	timeout    time.Duration
	validity   time.Duration
	policy     RetryPolicy

	username string
	password string

	mu    sync.RWMutex
	auth  authState
	login singleflight.Group

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Client for the given credentials. No network call is made
// until the first operation.
func New(username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
		validity: DefaultTokenValidity,
		policy:   DefaultRetryPolicy(),
		username: username,
		password: password,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = common.HTTPClient(c.timeout)
		c.ownsClient = true
	}
	return c
}

// Close releases the connections of the HTTP client created by New. A client
// passed in with WithHTTPClient is left untouched.
func (c *Client) Close() error {
	if c.ownsClient {
		common.CloseIdleConnections(c.client)
	}
	return nil
}

func (c *Client) endpointURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(endpoint)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) newGetRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := c.endpointURL(endpoint, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newPostJSONRequest(ctx context.Context, endpoint string, data interface{}) (*http.Request, error) {
	u, err := c.endpointURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doRequest sends req and reads the whole body. Only transport failures are
// returned as errors; the status code is left for the caller to classify.
func (c *Client) doRequest(req *http.Request, op string) (int, []byte, error) {
	ctx := req.Context()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "hypon transport error", slog.String("op", op), slog.Any("error", err))
		return 0, nil, &Error{Op: op, Kind: ErrRequest, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to read hypon response", slog.String("op", op), slog.Int("status", resp.StatusCode), slog.Any("error", err))
		// a truncated body is a transport failure whatever the status was
		return 0, nil, &Error{Op: op, Kind: ErrRequest, Err: err}
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"hypon response",
		slog.String("op", op),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)
	return resp.StatusCode, body, nil
}

// get issues an authenticated GET bounded by the client timeout.
func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newGetRequest(ctx, endpoint, params)
	if err != nil {
		return 0, nil, &Error{Op: op, Kind: ErrRequest, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	return c.doRequest(req, op)
}

// post issues an unauthenticated JSON POST bounded by the client timeout.
func (c *Client) post(ctx context.Context, op, endpoint string, data interface{}) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newPostJSONRequest(ctx, endpoint, data)
	if err != nil {
		return 0, nil, &Error{Op: op, Kind: ErrRequest, Err: err}
	}
	return c.doRequest(req, op)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
