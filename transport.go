package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"
)

// dialStream resolves cfg's address and opens one of {plain TCP,
// TLS-over-TCP, UNIX domain socket} (C8). Each phase (resolve, connect,
// TLS handshake) is bounded by its own timeout and fails with a distinct
// Kind; the TLS/plain duality the original C++ needs a stream variant for
// is free in Go, since both *net.TCPConn and *tls.Conn already satisfy
// net.Conn.
func dialStream(ctx context.Context, cfg Config) (net.Conn, error) {
	if cfg.UnixSocket != "" {
		if cfg.UseSSL {
			return nil, ErrUnixSocketsSSLUnsup
		}
		return dialUnix(ctx, cfg)
	}
	return dialTCP(ctx, cfg)
}

func dialUnix(ctx context.Context, cfg Config) (net.Conn, error) {
	d := net.Dialer{Timeout: nonZero(cfg.ConnectTimeout, time.Second)}
	connectCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	conn, err := d.DialContext(connectCtx, "unix", cfg.UnixSocket)
	if err != nil {
		if connectCtx.Err() == context.DeadlineExceeded {
			return nil, newErr(KindConnectTimeout)
		}
		return nil, wrapErr(KindConnectFailed, err)
	}
	return conn, nil
}

func dialTCP(ctx context.Context, cfg Config) (net.Conn, error) {
	host, port, _ := net.SplitHostPort(normalizeAddr(cfg.Addr))

	resolveCtx, cancel := context.WithTimeout(ctx, nonZero(cfg.ResolveTimeout, time.Second))
	ips, rerr := net.DefaultResolver.LookupHost(resolveCtx, host)
	rdone := resolveCtx.Err()
	cancel()
	if rerr != nil {
		if rdone == context.DeadlineExceeded {
			return nil, newErr(KindResolveTimeout)
		}
		return nil, wrapErr(KindResolveFailed, rerr)
	}
	if len(ips) == 0 {
		return nil, newErr(KindResolveFailed)
	}

	d := net.Dialer{Timeout: nonZero(cfg.ConnectTimeout, time.Second)}
	connectCtx, cancel2 := context.WithTimeout(ctx, d.Timeout)
	conn, cerr := d.DialContext(connectCtx, "tcp", net.JoinHostPort(ips[0], port))
	cdone := connectCtx.Err()
	cancel2()
	if cerr != nil {
		if cdone == context.DeadlineExceeded {
			return nil, newErr(KindConnectTimeout)
		}
		return nil, wrapErr(KindConnectFailed, cerr)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	if !cfg.UseSSL {
		return conn, nil
	}
	tlsConn, terr := tlsHandshake(ctx, conn, cfg, host)
	if terr != nil {
		conn.Close()
		return nil, terr
	}
	return tlsConn, nil
}

func tlsHandshake(ctx context.Context, conn net.Conn, cfg Config, host string) (net.Conn, error) {
	tlsCfg := &tls.Config{ServerName: host}
	if cfg.TLSConfig != nil {
		tlsCfg.InsecureSkipVerify = cfg.TLSConfig.InsecureSkipVerify
		if cfg.TLSConfig.ServerName != "" {
			tlsCfg.ServerName = cfg.TLSConfig.ServerName
		}
		if len(cfg.TLSConfig.RootCAPEM) > 0 {
			pool := x509.NewCertPool()
			pool.AppendCertsFromPEM(cfg.TLSConfig.RootCAPEM)
			tlsCfg.RootCAs = pool
		}
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, nonZero(cfg.SSLHandshakeTimeout, time.Second))
	defer cancel()

	tlsConn := tls.Client(conn, tlsCfg)
	err := tlsConn.HandshakeContext(handshakeCtx)
	if err != nil {
		if handshakeCtx.Err() == context.DeadlineExceeded {
			return nil, newErr(KindSSLHandshakeTimeout)
		}
		return nil, wrapErr(KindSSLHandshakeFailed, err)
	}
	return tlsConn, nil
}

func nonZero(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
