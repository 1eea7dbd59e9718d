package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorKind classifies a failed page fetch attempt.
type ErrorKind string

const (
	// KindTimeout indicates the attempt exceeded the per-request deadline.
	KindTimeout ErrorKind = "timeout"

	// KindHTTPStatus indicates a non-success HTTP status code.
	KindHTTPStatus ErrorKind = "http_status"

	// KindTransport indicates a connection-level failure.
	KindTransport ErrorKind = "transport"

	// KindDecode indicates the response body could not be parsed into the
	// expected envelope shape.
	KindDecode ErrorKind = "decode"
)

// FetchError describes a single failed fetch attempt for a page.
type FetchError struct {
	Kind       ErrorKind
	Page       int
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("page %d: %s error (status %d)", e.Page, e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("page %d: %s error: %v", e.Page, e.Kind, e.Err)
	}
	return fmt.Sprintf("page %d: %s error", e.Page, e.Kind)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Kind extracts the ErrorKind from an error chain.
// Returns "" if the chain contains no FetchError.
func Kind(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// classifyTransportError distinguishes request deadline hits from other
// connection-level failures.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
