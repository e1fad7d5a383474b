package redis

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the errors the connection engine can produce, independent
// of the Go error value wrapping them. Callers match on Kind with
// errors.Is against the sentinel *Error values below, or with As against
// *Error to inspect the kind of an arbitrary wrapped error.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota

	// Transport
	KindResolveTimeout
	KindConnectTimeout
	KindSSLHandshakeTimeout
	KindResolveFailed
	KindConnectFailed
	KindSSLHandshakeFailed
	KindStreamRead
	KindStreamWrite
	KindUnexpectedEOF

	// Protocol
	KindInvalidType
	KindNotANumber
	KindEmptyField
	KindUnterminatedMessage
	KindExceedsMaxReadBufferSize

	// Adapter (C3)
	KindNotADouble
	KindNotABool
	KindUnexpectedBoolValue
	KindExpectsSimpleType
	KindExpectsAggregate
	KindExpectsMapLikeAggregate
	KindExpectsSetAggregate
	KindNestedAggregateNotSupported
	KindIncompatibleSize

	// Server-reported
	KindResp3SimpleError
	KindResp3BlobError
	KindResp3Hello

	// Lifecycle
	KindNotConnected
	KindPongTimeout
	KindSyncReceivePushFailed
	KindOperationAborted

	// Configuration
	KindUnixSocketsUnsupported
	KindUnixSocketsSSLUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindResolveTimeout:
		return "resolve_timeout"
	case KindConnectTimeout:
		return "connect_timeout"
	case KindSSLHandshakeTimeout:
		return "ssl_handshake_timeout"
	case KindResolveFailed:
		return "resolve_failed"
	case KindConnectFailed:
		return "connect_failed"
	case KindSSLHandshakeFailed:
		return "ssl_handshake_failed"
	case KindStreamRead:
		return "stream_read"
	case KindStreamWrite:
		return "stream_write"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindInvalidType:
		return "invalid_type"
	case KindNotANumber:
		return "not_a_number"
	case KindEmptyField:
		return "empty_field"
	case KindUnterminatedMessage:
		return "unterminated_message"
	case KindExceedsMaxReadBufferSize:
		return "exceeds_maximum_read_buffer_size"
	case KindNotADouble:
		return "not_a_double"
	case KindNotABool:
		return "not_a_bool"
	case KindUnexpectedBoolValue:
		return "unexpected_bool_value"
	case KindExpectsSimpleType:
		return "expects_simple_type"
	case KindExpectsAggregate:
		return "expects_aggregate"
	case KindExpectsMapLikeAggregate:
		return "expects_map_like_aggregate"
	case KindExpectsSetAggregate:
		return "expects_set_aggregate"
	case KindNestedAggregateNotSupported:
		return "nested_aggregate_not_supported"
	case KindIncompatibleSize:
		return "incompatible_size"
	case KindResp3SimpleError:
		return "resp3_simple_error"
	case KindResp3BlobError:
		return "resp3_blob_error"
	case KindResp3Hello:
		return "resp3_hello"
	case KindNotConnected:
		return "not_connected"
	case KindPongTimeout:
		return "pong_timeout"
	case KindSyncReceivePushFailed:
		return "sync_receive_push_failed"
	case KindOperationAborted:
		return "operation_aborted"
	case KindUnixSocketsUnsupported:
		return "unix_sockets_unsupported"
	case KindUnixSocketsSSLUnsupported:
		return "unix_sockets_ssl_unsupported"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across the engine's public
// surface. It carries a Kind for programmatic matching plus an optional
// cause and server-reported text.
type Error struct {
	Kind   Kind
	Text   string // verbatim server text, for Kind in {Resp3SimpleError, Resp3BlobError, Resp3Hello}
	cause  error
}

func (e *Error) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("redis: %s: %s", e.Kind, e.Text)
	}
	if e.cause != nil {
		return fmt.Sprintf("redis: %s: %s", e.Kind, e.cause)
	}
	return fmt.Sprintf("redis: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, newErr(KindX)) style matching (the Err*
// sentinels below are such values): e matches a target *Error of the same
// Kind that carries no cause and no text, whatever e's own cause or text.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.cause == nil && other.Text == "" && other.Kind == e.Kind
}

// newErr builds a bare *Error of the given kind.
func newErr(k Kind) *Error { return &Error{Kind: k} }

// wrapErr builds an *Error of the given kind wrapping cause with pkg/errors
// so call sites retain a stack-addable chain, matching the pattern used
// throughout packetd/protocol for transport-adjacent failures.
func wrapErr(k Kind, cause error) *Error {
	return &Error{Kind: k, cause: errors.WithMessage(cause, k.String())}
}

// serverErr builds an *Error carrying verbatim server text.
func serverErr(k Kind, text string) *Error {
	return &Error{Kind: k, Text: text}
}

// serverNodeErr builds an *Error of kind k around a decoded ServerError
// node, keeping se reachable through Unwrap so callers can errors.As into
// either the *Error (for Kind) or the ServerError (for Prefix()).
func serverNodeErr(k Kind, se ServerError) *Error {
	return &Error{Kind: k, Text: string(se), cause: se}
}

// Sentinel errors for errors.Is against operations that don't need a cause
// or server text.
var (
	ErrOperationAborted     = newErr(KindOperationAborted)
	ErrNotConnected         = newErr(KindNotConnected)
	ErrPongTimeout          = newErr(KindPongTimeout)
	ErrSyncReceivePushFail  = newErr(KindSyncReceivePushFailed)
	ErrUnixSocketsUnsup     = newErr(KindUnixSocketsUnsupported)
	ErrUnixSocketsSSLUnsup  = newErr(KindUnixSocketsSSLUnsupported)
)

// ServerError is a verbatim error reply from Redis (resp3_simple_error or
// resp3_blob_error), with a Prefix() accessor callers use to distinguish
// e.g. "WRONGTYPE" from "NOAUTH" without parsing the whole message.
type ServerError string

// Error honors the error interface.
func (e ServerError) Error() string {
	return fmt.Sprintf("redis: server error %q", string(e))
}

// Prefix returns the first word, which represents the error kind, e.g.
// "WRONGTYPE" out of "WRONGTYPE Operation against a key...".
func (e ServerError) Prefix() string {
	s := string(e)
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}
