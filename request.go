package redis

import (
	"strconv"
)

// RequestConfig governs per-request behavior at cancellation and
// connection loss (spec §4.5, §4.10). Defaults match spec §6.
type RequestConfig struct {
	// CancelOnConnectionLost fails the request when the connection drops
	// instead of re-sending it after reconnect. A request already written
	// is failed only if CancelIfUnresponded is also set. Default true.
	CancelOnConnectionLost bool

	// CancelIfUnresponded additionally requires that the request's write
	// already completed before a connection loss counts against it;
	// a request still waiting to be written is always requeued regardless
	// of this flag (only a written-but-unanswered request is affected).
	// Default true.
	CancelIfUnresponded bool

	// CancelIfNotConnected fails the request immediately with
	// not_connected instead of waiting for the next successful connect.
	// Default false.
	CancelIfNotConnected bool

	// HelloWithPriority rotates the request to the head of the
	// waiting-write partition so it is written immediately after HELLO,
	// ahead of any already-waiting non-priority request, while
	// preserving FIFO order among other priority requests. Default true.
	HelloWithPriority bool
}

// DefaultRequestConfig returns the spec §6 defaults.
func DefaultRequestConfig() RequestConfig {
	return RequestConfig{
		CancelOnConnectionLost: true,
		CancelIfUnresponded:    true,
		CancelIfNotConnected:   false,
		HelloWithPriority:      true,
	}
}

// Request is a built RESP3 pipeline payload plus the number of expected
// top-level replies and the cancellation/reconnect config (C4). Once
// submitted via Conn.Exec, its payload is immutable.
type Request struct {
	buf     []byte
	replies int
	Config  RequestConfig
}

// NewRequest returns an empty Request using the spec §6 default config.
func NewRequest() *Request {
	return &Request{Config: DefaultRequestConfig()}
}

// NewRequestWithConfig returns an empty Request using cfg.
func NewRequestWithConfig(cfg RequestConfig) *Request {
	return &Request{Config: cfg}
}

// ExpectedReplies returns how many top-level replies this request's
// commands will produce (pushes, e.g. from SUBSCRIBE, do not count: use
// PushNoReply for those).
func (r *Request) ExpectedReplies() int { return r.replies }

// Payload returns the immutable RESP3 wire bytes built so far.
func (r *Request) Payload() []byte { return r.buf }

func (r *Request) writeHeader(n int) {
	r.buf = append(r.buf, '*')
	r.buf = strconv.AppendInt(r.buf, int64(n), 10)
	r.buf = append(r.buf, '\r', '\n')
}

func (r *Request) writeBulk(b []byte) {
	r.buf = append(r.buf, '$')
	r.buf = strconv.AppendInt(r.buf, int64(len(b)), 10)
	r.buf = append(r.buf, '\r', '\n')
	r.buf = append(r.buf, b...)
	r.buf = append(r.buf, '\r', '\n')
}

// ToBulk converts a command argument into its RESP3 bulk-string bytes.
// Users override this for their own key/value types; the default handles
// the common Go scalar and []byte shapes.
type ToBulk func(v any) []byte

// DefaultToBulk is the built-in to-bulk hook used by Push when no
// user-supplied hook is given.
func DefaultToBulk(v any) []byte {
	switch x := v.(type) {
	case []byte:
		return x
	case string:
		return []byte(x)
	case int:
		return strconv.AppendInt(nil, int64(x), 10)
	case int64:
		return strconv.AppendInt(nil, x, 10)
	case uint64:
		return strconv.AppendUint(nil, x, 10)
	case float64:
		return strconv.AppendFloat(nil, x, 'g', -1, 64)
	case bool:
		if x {
			return []byte("1")
		}
		return []byte("0")
	case nil:
		return nil
	default:
		return []byte{}
	}
}

// Push appends one command expecting a reply: verb followed by args,
// each converted to bulk bytes by DefaultToBulk.
func (r *Request) Push(verb string, args ...any) *Request {
	return r.PushWith(DefaultToBulk, verb, args...)
}

// PushWith is Push with a caller-supplied to-bulk hook, for user types that
// DefaultToBulk doesn't know how to serialize.
func (r *Request) PushWith(toBulk ToBulk, verb string, args ...any) *Request {
	r.writeHeader(1 + len(args))
	r.writeBulk([]byte(verb))
	for _, a := range args {
		r.writeBulk(toBulk(a))
	}
	r.replies++
	return r
}

// PushNoReply appends one command that does not produce a top-level reply
// counted against this request (e.g. SUBSCRIBE, which replies with pushes
// instead). It is otherwise identical to Push.
func (r *Request) PushNoReply(verb string, args ...any) *Request {
	r.writeHeader(1 + len(args))
	r.writeBulk([]byte(verb))
	for _, a := range args {
		r.writeBulk(DefaultToBulk(a))
	}
	return r
}

// PushRange appends one command built from a fixed verb, a key, and an
// iterable of values (e.g. "SADD key v1 v2 v3"), each converted with
// toBulk. A nil toBulk uses DefaultToBulk.
func (r *Request) PushRange(verb, key string, values []any, toBulk ToBulk) *Request {
	if toBulk == nil {
		toBulk = DefaultToBulk
	}
	r.writeHeader(2 + len(values))
	r.writeBulk([]byte(verb))
	r.writeBulk([]byte(key))
	for _, v := range values {
		r.writeBulk(toBulk(v))
	}
	r.replies++
	return r
}
