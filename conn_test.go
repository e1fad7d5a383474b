package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnAccessors(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	require.Equal(t, StateIdle, c.State())
	require.True(t, c.WillReconnect())
	require.Equal(t, Usage{}, c.Usage())
}

func TestConnExecFailsWhenTerminated(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	c.setState(StateTerminated)

	req := NewRequest()
	req.Push("PING")
	n, err := c.Exec(context.Background(), req, nil)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnExecCancelIfNotConnected(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	req := NewRequestWithConfig(RequestConfig{CancelIfNotConnected: true})
	req.Push("PING")

	n, err := c.Exec(context.Background(), req, nil)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnExecContextCancelled(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	c.setState(StateRunning)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := NewRequest()
	req.Push("PING")
	n, err := c.Exec(ctx, req, nil)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, ErrOperationAborted)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.mux.queue)
}

// TestConnExecCompletesWhenSlotFinishes exercises the add/wake/block path
// directly, standing in for the writer+reader goroutines that would
// normally drive a slot to completion over a real stream.
func TestConnExecCompletesWhenSlotFinishes(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	c.setState(StateRunning)

	req := NewRequest()
	req.Push("PING")

	go func() {
		<-c.wakeWriter
		c.mu.Lock()
		s := c.mux.queue[0]
		c.mu.Unlock()
		s.bytesRead = 7
		s.finish(nil)
	}()

	n, err := c.Exec(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestConnCancelOpExec(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	req := NewRequest()
	req.Push("PING")
	s := newSlot(req, &IgnoreAdapter{})

	c.mu.Lock()
	c.mux.add(s)
	c.mu.Unlock()

	c.Cancel(OpExec)
	require.ErrorIs(t, s.err, ErrOperationAborted)
}

func TestConnCancelOpReceive(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	c.Cancel(OpReceive)

	n, err := c.Receive(context.Background())
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, ErrOperationAborted)
}

func TestConnCancelOpReconnection(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	require.True(t, c.WillReconnect())

	c.Cancel(OpReconnection)
	require.False(t, c.WillReconnect())
}

func TestConnCancelOpHealthCheck(t *testing.T) {
	cfg := DefaultConfig()
	c := NewConn(cfg, nil)

	c.Cancel(OpHealthCheck)

	c.mu.Lock()
	interval := c.cfg.HealthCheckInterval
	c.mu.Unlock()
	require.Zero(t, interval)
}

func TestConnCancelOpRunLeavesReconnectionEnabledAndIsSafeWithoutAStream(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	require.NotPanics(t, func() { c.Cancel(OpRun) })
	require.True(t, c.WillReconnect())
}

func TestConnCancelOpAll(t *testing.T) {
	c := NewConn(DefaultConfig(), nil)
	req := NewRequest()
	req.Push("PING")
	s := newSlot(req, &IgnoreAdapter{})

	c.mu.Lock()
	c.mux.add(s)
	c.mu.Unlock()

	c.Cancel(OpAll)

	require.False(t, c.WillReconnect())
	require.ErrorIs(t, s.err, ErrOperationAborted)
	_, err := c.Receive(context.Background())
	require.ErrorIs(t, err, ErrOperationAborted)
}
