package hypon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by a Client matches exactly one of
// ErrAuthentication, ErrRateLimit or ErrRequest with errors.Is.
var (
	// ErrAuthentication means the credentials were rejected or the login
	// response did not contain a token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimit means the cloud kept answering 429 after every retry.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrRequest covers transport failures, timeouts, unexpected HTTP statuses
	// and responses that stayed malformed after every retry.
	ErrRequest = errors.New("request failed")

	// ErrMalformedResponse is wrapped by errors whose response body could not
	// be decoded. It is never a kind on its own.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error is returned by every Client operation.
type Error struct {
	// Op is the operation that failed, e.g. "login" or "get overview".
	Op string

	// Kind is one of ErrAuthentication, ErrRateLimit or ErrRequest.
	Kind error

	// StatusCode is the HTTP status of the last attempt, or 0 when no
	// response was received.
	StatusCode int

	// Retries is the number of retries made before giving up.
	Retries int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("hypon: ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("failed")
	}
	if e.StatusCode != 0 {
		b.WriteString(" (HTTP ")
		b.WriteString(strconv.Itoa(e.StatusCode))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Retries > 0 {
		fmt.Fprintf(&b, " (retries: %d)", e.Retries)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func statusError(op string, status int) *Error {
	kind := ErrRequest
	switch status {
	case 401:
		kind = ErrAuthentication
	case 429:
		kind = ErrRateLimit
	}
	return &Error{Op: op, Kind: kind, StatusCode: status}
}

func malformedError(op string, format string, args ...any) *Error {
	return &Error{
		Op:   op,
		Kind: ErrRequest,
		Err:  fmt.Errorf("%w: "+format, append([]any{ErrMalformedResponse}, args...)...),
	}
}
