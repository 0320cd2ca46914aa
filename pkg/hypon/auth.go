package hypon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/tidwall/gjson"
)

const (
	opLogin       = "login"
	loginEndpoint = "login"
)

// authState is replaced as a whole so the token is never observed without
// its expiry.
type authState struct {
	token     string
	expiresAt time.Time
}

func (a authState) valid(now time.Time) bool {
	return a.token != "" && now.Before(a.expiresAt)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Connect makes sure the Client holds a valid token, logging in when there is
// none or it expired. It does nothing when the cached token is still valid.
// Concurrent callers share a single login, which is bounded by the client
// timeout rather than by any one caller's context. Each caller stops waiting
// when its own ctx is done.
//
// Connect never retries: a rejected login returns ErrAuthentication, a
// throttled one ErrRateLimit and anything else ErrRequest. A failed login
// leaves the previous state untouched.
func (c *Client) Connect(ctx context.Context) error {
	if c.Authenticated() {
		return nil
	}
	loginCtx := context.WithoutCancel(ctx)
	ch := c.login.DoChan(opLogin, func() (interface{}, error) {
		// a login may have completed while we were waiting to get here
		if c.Authenticated() {
			return nil, nil
		}
		return nil, c.doLogin(loginCtx)
	})
	select {
	case <-ctx.Done():
		return &Error{Op: opLogin, Kind: ErrRequest, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			log.Ctx(ctx).DebugContext(ctx, "shared in-flight hypon login")
		}
		return res.Err
	}
}

func (c *Client) doLogin(ctx context.Context) error {
	log.Ctx(ctx).DebugContext(ctx, "logging in to hypon")

	status, body, err := c.post(ctx, opLogin, loginEndpoint, loginRequest{
		Username: c.username,
		Password: c.password,
	})
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		e := statusError(opLogin, status)
		if status == http.StatusUnauthorized {
			e.Err = errors.New("invalid credentials")
		}
		log.Ctx(ctx).ErrorContext(ctx, "hypon login failed", slog.Int("status", status))
		return e
	}

	if !gjson.ValidBytes(body) {
		log.Ctx(ctx).ErrorContext(ctx, "hypon login returned invalid json")
		e := malformedError(opLogin, "invalid json")
		e.Kind = ErrAuthentication
		return e
	}
	token := gjson.GetBytes(body, "data.token")
	if token.Type != gjson.String || token.String() == "" {
		log.Ctx(ctx).ErrorContext(ctx, "hypon login response missing token")
		e := malformedError(opLogin, "missing data.token")
		e.Kind = ErrAuthentication
		return e
	}

	c.setAuth(authState{
		token:     token.String(),
		expiresAt: c.now().Add(c.validity),
	})
	log.Ctx(ctx).DebugContext(ctx, "hypon login success", slog.Duration("validity", c.validity))
	return nil
}

// Authenticated reports whether the Client holds an unexpired token.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.valid(c.now())
}

// Invalidate drops the cached token so the next operation logs in again.
func (c *Client) Invalidate() {
	c.setAuth(authState{})
}

// TokenExpiry returns when the cached token expires, or the zero time if
// there is none.
func (c *Client) TokenExpiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.auth.token == "" {
		return time.Time{}
	}
	return c.auth.expiresAt
}

func (c *Client) setAuth(a authState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth.token
}
