// Package redis implements an asynchronous RESP3 connection engine for
// Redis and Redis-compatible servers. See
// <https://redis.io/docs/latest/develop/reference/protocol-spec/> for the
// wire protocol and <https://redis.io/topics/pipelining> for the
// pipelining model this engine is built around.
//
// A Conn owns one logical connection: Run drives connect, HELLO handshake,
// and reconnect on loss, while Exec submits a pipelined Request and blocks
// until its Adapter has decoded every expected reply. Server-to-client
// pushes (Pub/Sub, client-side caching invalidation) are drained separately
// through Receive.
package redis
