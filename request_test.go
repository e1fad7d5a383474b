package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestPush(t *testing.T) {
	r := NewRequest()
	r.Push("SET", "key", "value")
	require.Equal(t, 1, r.ExpectedReplies())
	require.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n", string(r.Payload()))
}

func TestRequestPushPipeline(t *testing.T) {
	r := NewRequest()
	r.Push("PING").Push("GET", "key")
	require.Equal(t, 2, r.ExpectedReplies())
	require.Equal(t,
		"*1\r\n$4\r\nPING\r\n"+"*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n",
		string(r.Payload()))
}

func TestRequestPushNoReply(t *testing.T) {
	r := NewRequest()
	r.PushNoReply("SUBSCRIBE", "channel")
	require.Equal(t, 0, r.ExpectedReplies())
	require.Equal(t, "*2\r\n$9\r\nSUBSCRIBE\r\n$7\r\nchannel\r\n", string(r.Payload()))
}

func TestRequestPushRange(t *testing.T) {
	r := NewRequest()
	r.PushRange("SADD", "myset", []any{"a", "b", "c"}, nil)
	require.Equal(t, 1, r.ExpectedReplies())
	require.Equal(t, "*5\r\n$4\r\nSADD\r\n$5\r\nmyset\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n", string(r.Payload()))
}

func TestRequestPushWithCustomToBulk(t *testing.T) {
	type point struct{ x, y int }
	toBulk := func(v any) []byte {
		p := v.(point)
		return []byte{byte('0' + p.x), byte('0' + p.y)}
	}
	r := NewRequest()
	r.PushWith(toBulk, "GEOADD", point{1, 2})
	require.Equal(t, "*2\r\n$6\r\nGEOADD\r\n$2\r\n12\r\n", string(r.Payload()))
}

func TestDefaultToBulk(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{[]byte("raw"), "raw"},
		{"str", "str"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint64(9), "9"},
		{1.5, "1.5"},
		{true, "1"},
		{false, "0"},
		{nil, ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, string(DefaultToBulk(c.in)))
	}
}

func TestDefaultToBulkUnknownType(t *testing.T) {
	type custom struct{}
	require.Equal(t, []byte{}, DefaultToBulk(custom{}))
}

// TestRequestConfigDefaults pins spec §6's defaults, which several
// reconnect-policy decisions in the multiplexer depend on implicitly.
func TestRequestConfigDefaults(t *testing.T) {
	cfg := DefaultRequestConfig()
	require.True(t, cfg.CancelOnConnectionLost)
	require.True(t, cfg.CancelIfUnresponded)
	require.False(t, cfg.CancelIfNotConnected)
	require.True(t, cfg.HelloWithPriority)
}

func TestNewRequestWithConfig(t *testing.T) {
	cfg := RequestConfig{CancelIfNotConnected: true}
	r := NewRequestWithConfig(cfg)
	require.Equal(t, cfg, r.Config)
}
