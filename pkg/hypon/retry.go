package hypon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/log"
)

const (
	// DefaultMaxRetries is the retry budget of every operation.
	DefaultMaxRetries = 3

	// DefaultBackoff is the fixed wait after a throttled or failed status.
	DefaultBackoff = 10 * time.Second
)

// RetryPolicy bounds how an operation retries. An operation makes at most
// MaxRetries+1 attempts.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy returns 3 retries with a 10 second backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

func (p RetryPolicy) with(opts []RequestOption) RetryPolicy {
	for _, opt := range opts {
		opt(&p)
	}
	return p.normalize()
}

// action is what the retry loop does after a failed attempt.
type action int

const (
	// actionFail returns the error immediately.
	actionFail action = iota
	// actionRetry tries again without waiting.
	actionRetry
	// actionBackoff waits for the policy backoff then tries again.
	actionBackoff
	// actionReauthenticate drops the token then tries again without waiting.
	actionReauthenticate
)

func (a action) String() string {
	switch a {
	case actionFail:
		return "fail"
	case actionRetry:
		return "retry"
	case actionBackoff:
		return "backoff"
	case actionReauthenticate:
		return "reauthenticate"
	default:
		return "unknown"
	}
}

// classify maps a failed attempt onto the next action:
//
//	429                       -> backoff
//	401                       -> reauthenticate
//	any other non-200 status  -> backoff
//	200 with malformed body   -> retry
//	transport failure/timeout -> fail
func classify(err error) action {
	var e *Error
	if !errors.As(err, &e) {
		return actionFail
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return actionBackoff
	case e.StatusCode == http.StatusUnauthorized:
		return actionReauthenticate
	case e.StatusCode != 0 && e.StatusCode != http.StatusOK:
		return actionBackoff
	case errors.Is(e.Err, ErrMalformedResponse):
		return actionRetry
	default:
		return actionFail
	}
}

// retry runs attempt until it succeeds, fails terminally or the budget runs
// out. Every attempt starts by making sure the client is logged in; login
// failures are returned as they are.
func retry[T any](ctx context.Context, c *Client, op string, opts []RequestOption, attempt func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	policy := c.policy.with(opts)

	for n := 0; ; n++ {
		if err := c.Connect(ctx); err != nil {
			return zero, err
		}

		v, err := attempt(ctx)
		if err == nil {
			return v, nil
		}

		act := classify(err)
		if act == actionFail {
			return zero, err
		}
		if n >= policy.MaxRetries {
			log.Ctx(ctx).ErrorContext(
				ctx,
				"hypon retries exhausted",
				slog.String("op", op),
				slog.Int("retries", n),
				slog.Any("error", err),
			)
			var e *Error
			if errors.As(err, &e) {
				e.Retries = n
			}
			return zero, err
		}

		log.Ctx(ctx).WarnContext(
			ctx,
			"hypon request failed, retrying",
			slog.String("op", op),
			slog.String("action", act.String()),
			slog.Int("status", StatusCode(err)),
			slog.Int("remaining", policy.MaxRetries-n),
			slog.Any("error", err),
		)

		switch act {
		case actionBackoff:
			if err := c.sleep(ctx, policy.Backoff); err != nil {
				return zero, &Error{Op: op, Kind: ErrRequest, Retries: n, Err: err}
			}
		case actionReauthenticate:
			c.Invalidate()
		}
	}
}
