package client

import (
	"errors"
	"fmt"
)

// Kind classifies a normalized client error.
type Kind int

const (
	// KindUnexpected covers request construction and decoding failures.
	KindUnexpected Kind = iota
	// KindTransport means no response was received.
	KindTransport
	// KindServer means the server answered with a failure.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "unexpected"
	}
}

// Fallback messages surfaced when the server gave none.
const (
	MsgNetwork    = "network error: unable to reach the server"
	MsgUnexpected = "an unexpected error occurred"
)

// Error is the only error type Client methods return.
type Error struct {
	Kind       Kind
	StatusCode int // zero unless Kind is KindServer
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindServer {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: MsgNetwork, Err: err}
}

func unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}

// IsStatus returns true if err (or any wrapped error) is a server error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindServer && apiErr.StatusCode == code
	}
	return false
}

// IsKind returns true if err (or any wrapped error) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == k
	}
	return false
}

// Message returns the user-facing message of err: the normalized message for
// client errors, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
