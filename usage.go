package redis

// Usage holds the connection engine's running counters, restored from
// original_source/include/boost/redis/connection_base.hpp's usage() (spec
// §6 Observability, SPEC_FULL §4).
type Usage struct {
	// CommandsSent counts requests written: a Request that pipelines
	// several commands adds one.
	CommandsSent      uint64
	BytesSent         uint64
	ResponsesReceived uint64
	PushesReceived    uint64
	ResponseBytes     uint64
	PushBytes         uint64
	BytesRotated      uint64
}
