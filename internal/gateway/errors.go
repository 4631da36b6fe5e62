// internal/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client error taxonomy. A *Error matches exactly one
// of these with errors.Is.
var (
	// ErrTransportUnreachable indicates the gateway could not be reached
	ErrTransportUnreachable = errors.New("gateway unreachable")

	// ErrHandshakeFailed indicates the gateway rejected the session handshake
	ErrHandshakeFailed = errors.New("gateway handshake failed")

	// ErrConnectionClosedEarly indicates the socket closed before the handshake completed
	ErrConnectionClosedEarly = errors.New("connection closed before handshake completed")

	// ErrConnectionClosed indicates the socket closed after the handshake but before the reply
	ErrConnectionClosed = errors.New("connection closed before reply")

	// ErrTimeout indicates the call did not complete within its timeout
	ErrTimeout = errors.New("gateway call timed out")

	// ErrRemote indicates the gateway answered but reported a failure
	ErrRemote = errors.New("gateway returned an error")

	// ErrMalformedResponse indicates the response could not be decoded
	ErrMalformedResponse = errors.New("malformed gateway response")
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindUnreachable ErrorKind = iota + 1
	KindHandshakeFailed
	KindClosedEarly
	KindClosed
	KindTimeout
	KindRemote
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "transport_unreachable"
	case KindHandshakeFailed:
		return "handshake_failed"
	case KindClosedEarly:
		return "connection_closed_early"
	case KindClosed:
		return "connection_closed"
	case KindTimeout:
		return "timeout"
	case KindRemote:
		return "remote_error"
	case KindMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnreachable:
		return ErrTransportUnreachable
	case KindHandshakeFailed:
		return ErrHandshakeFailed
	case KindClosedEarly:
		return ErrConnectionClosedEarly
	case KindClosed:
		return ErrConnectionClosed
	case KindTimeout:
		return ErrTimeout
	case KindRemote:
		return ErrRemote
	case KindMalformed:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// Error is the single terminal outcome of a failed call.
type Error struct {
	Kind ErrorKind

	// Method is the remote method that was called, when known
	Method string

	// Message is a human-readable description, suitable for display
	Message string

	// Code is the remote error code, if the gateway supplied one
	Code string

	// HTTPStatus is set when an HTTP transport answered with a non-2xx status
	HTTPStatus int

	// Err is the underlying cause (network error, decode error, ...)
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, e.Code)
	}
	if e.Method != "" {
		msg = e.Method + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or 0 if err is not a gateway error.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return 0
}
