// Package hypon is a client for the Hypontech solar monitoring cloud.
//
// A Client logs in with a username and password, caches the bearer token it
// receives and exposes the account overview, the plant list, the inverters of
// a plant and the administrator account:
//
//	c := hypon.New(username, password)
//	defer c.Close()
//
//	overview, err := c.GetOverview(ctx)
//	if errors.Is(err, hypon.ErrRateLimit) {
//		// try again later
//	}
//
// Every operation retries throttled and failed requests according to the
// Client's RetryPolicy, which can be overridden per call with Retries.
package hypon
