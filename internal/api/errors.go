package api

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrRejected          = errors.New("request rejected")
	ErrMalformedResponse = errors.New("malformed response")
)

// UnknownErrorMessage is used when a rejection carries no error field.
const UnknownErrorMessage = "unknown error"

// ErrorKind classifies why a backend call failed.
type ErrorKind int

// ErrorKind values. All of them are recoverable at the call site.
const (
	KindNetworkFailure ErrorKind = iota + 1
	KindRejected
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindRejected:
		return "rejected"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetworkFailure:
		return ErrNetworkFailure
	case KindRejected:
		return ErrRejected
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Status   int    // HTTP status, zero for network failures
	Message  string // server-provided message for rejections
	Err      error  // underlying transport or decode error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("%s: rejected with status %d: %s", e.Endpoint, e.Status, e.Message)
	case KindNetworkFailure:
		return fmt.Sprintf("%s: could not reach backend: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRejected) and friends work.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// AsError extracts an *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
