package redis

import (
	"net"
	"path/filepath"
	"time"
)

// Config is the connection engine's configuration (spec §6). Struct tags
// let an embedder decode one with any config loader in the pack (e.g.
// elastic/go-ucfg, as packetd/confengine does) without adapting field
// names; this package itself imposes no config file format.
type Config struct {
	// UseSSL requests a TLS handshake after connecting. Mutually
	// exclusive with UnixSocket.
	UseSSL bool `config:"useSsl"`

	// Addr is the TCP host:port to dial, filled in by normalizeAddr: an
	// empty Addr dials "localhost:6379". DefaultConfig sets
	// "127.0.0.1:6379".
	Addr string `config:"addr"`

	// UnixSocket is a UNIX domain socket path. Mutually exclusive with
	// UseSSL.
	UnixSocket string `config:"unixSocket"`

	Username   string `config:"username"`
	Password   string `config:"password"`
	ClientName string `config:"clientname"`

	// DatabaseIndex selects a database with SELECT during the handshake
	// when non-nil and non-zero.
	DatabaseIndex *int `config:"databaseIndex"`

	// HealthCheckID is sent as the argument to the periodic PING.
	HealthCheckID string `config:"healthCheckId"`

	// HealthCheckInterval is the period of the health-check PING; zero
	// disables health checking entirely.
	HealthCheckInterval time.Duration `config:"healthCheckInterval"`

	// ReconnectWaitInterval is how long WaitingReconnect waits before
	// retrying; zero means "do not reconnect".
	ReconnectWaitInterval time.Duration `config:"reconnectWaitInterval"`

	ResolveTimeout      time.Duration `config:"resolveTimeout"`
	ConnectTimeout      time.Duration `config:"connectTimeout"`
	SSLHandshakeTimeout time.Duration `config:"sslHandshakeTimeout"`

	// MaxReadSize bounds the read buffer (spec §3's
	// exceeds_maximum_read_buffer_size). Zero means SizeMax.
	MaxReadSize int `config:"maxReadSize"`

	// Setup is an optional pipeline run immediately after HELLO/AUTH/
	// SELECT, e.g. for ACL or CLIENT TRACKING commands.
	Setup *Request `config:"-"`

	// TLSConfig is consulted only when UseSSL is true; nil uses Go's
	// default client TLS policy.
	TLSConfig *TLSConfig `config:"-"`
}

// TLSConfig carries the verify mode and CA set spec §6 calls for, without
// this package importing crypto/tls types into Config directly (kept in
// transport.go, the one place that needs the real type).
type TLSConfig struct {
	InsecureSkipVerify bool
	ServerName         string
	RootCAPEM          []byte
}

// SizeMax is the default upper boundary for the read buffer: a string
// value can be at most 512 MiB in RESP3.
const SizeMax = 512 << 20

// DefaultConfig returns a Config with spec §6's defaults applied: loopback
// TCP, one-second network timeouts, health checking disabled, automatic
// reconnection with a short backoff.
func DefaultConfig() Config {
	return Config{
		Addr:                  "127.0.0.1:6379",
		HealthCheckID:         "rediscore",
		ResolveTimeout:        time.Second,
		ConnectTimeout:        time.Second,
		SSLHandshakeTimeout:   time.Second,
		ReconnectWaitInterval: 100 * time.Millisecond,
		MaxReadSize:           SizeMax,
	}
}

// Validate rejects configurations spec §3 calls out as invalid: TLS
// together with a UNIX socket path.
func (c Config) Validate() error {
	if c.UnixSocket != "" {
		if c.UseSSL {
			return ErrUnixSocketsSSLUnsup
		}
	}
	return nil
}

func isUnixAddr(s string) bool {
	return len(s) != 0 && s[0] == '/'
}

// normalizeAddr fills in "localhost:6379"-style defaults for a bare host or
// port, and passes a UNIX socket path through filepath.Clean.
func normalizeAddr(s string) string {
	if isUnixAddr(s) {
		return filepath.Clean(s)
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host = s
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(host, port)
}

func (c Config) maxReadSize() int {
	if c.MaxReadSize <= 0 {
		return SizeMax
	}
	return c.MaxReadSize
}
