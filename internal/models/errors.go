package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding marks a request payload that could not be serialized. Not retryable.
	ErrEncoding = errors.New("encoding error")
	// ErrRemoteAPI marks a transport, HTTP status, or response decoding failure.
	ErrRemoteAPI = errors.New("remote API error")
	// ErrNotFound marks an id the remote service has no record for.
	ErrNotFound = errors.New("not found")
	// ErrCache marks a metadata or blob store failure.
	ErrCache = errors.New("cache error")
)

// RemoteAPIError describes a failed call to a remote endpoint.
//
// It matches [ErrRemoteAPI] with [errors.Is] and also unwraps to the underlying cause.
type RemoteAPIError struct {
	Endpoint   string
	StatusCode int // HTTP status, or the service's own result code when HTTP succeeded
	Err        error
}

func (e *RemoteAPIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", ErrRemoteAPI, e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", ErrRemoteAPI, e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", ErrRemoteAPI, e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s %s", ErrRemoteAPI, e.Endpoint)
	}
}

func (e *RemoteAPIError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteAPI}
	}
	return []error{ErrRemoteAPI, e.Err}
}

// CacheErr wraps err as an [ErrCache] with an operation description.
func CacheErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCache, op, err)
}
