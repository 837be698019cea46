package driver

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error kinds a driver capability can surface.
// Every raw vendor exception is normalized into one of these at the
// interface boundary; callers never see driver-internal error types.
type Kind int

const (
	// Transient covers network blips, timeouts, HTTP 5xx, rate limiting,
	// and transient decode errors. Retryable.
	Transient Kind = iota
	// AuthError means credentials were rejected, or a required credential
	// key was missing. Non-retryable; the zone's supervision stops.
	AuthError
	// NotSupported means the capability does not exist on this family.
	// The supervisor tolerates it and treats the data as unavailable.
	NotSupported
	// Fatal means the device is unreachable after retries were exhausted.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case AuthError:
		return "auth_error"
	case NotSupported:
		return "not_supported"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the typed error every Thermostat/Zone capability returns on
// failure. Capabilities never return a bare error or a silent zero value.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("driver: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("driver: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NotSupportedErr builds the sentinel error a capability returns when the
// underlying family has no implementation for it, rather than silently
// returning a zero value that a comparison could coerce into a false
// positive.
func NotSupportedErr(op string) error {
	return &Error{Kind: NotSupported, Op: op}
}

// Transientf builds a Transient-kind error.
func Transientf(op string, err error) error {
	return &Error{Kind: Transient, Op: op, Err: err}
}

// AuthErrorf builds an AuthError-kind error.
func AuthErrorf(op string, err error) error {
	return &Error{Kind: AuthError, Op: op, Err: err}
}

// Fatalf builds a Fatal-kind error.
func Fatalf(op string, err error) error {
	return &Error{Kind: Fatal, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, and
// returns (Fatal, false) otherwise so callers default to the most
// conservative handling for an unrecognized error shape.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return Fatal, false
}
