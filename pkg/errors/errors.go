package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyKey    = errors.New("empty key")
	ErrInvalidData = errors.New("invalid data type")
	// ErrMalformedRequest is returned for requests failing field validation.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrPayloadTooLarge is returned for request bodies above the upload limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrNetworkFailure covers transport errors and timeouts. Retried up to the
	// configured bound before it is surfaced.
	ErrNetworkFailure = errors.New("network failure")
	// ErrRemoteRejection means the remote service answered with an error status.
	ErrRemoteRejection = errors.New("remote service rejected the request")
	// ErrInvalidSelection is a client side validation failure. Requests failing
	// with it never reach the network.
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrConcurrencyConflict = errors.New("another lifecycle operation is in progress")
	ErrInvalidTransition   = errors.New("invalid federation status transition")
	ErrNotActive           = errors.New("federation is not active")
)

// RemoteError carries the status code and message returned by the remote
// analysis service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrRemoteRejection, e.StatusCode)
	}

	return fmt.Sprintf("%s: status %d: %s", ErrRemoteRejection, e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteRejection
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}
