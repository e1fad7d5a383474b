package redis

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the run supervisor's current phase (C9).
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateRunning
	StateWaitingReconnect
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateRunning:
		return "running"
	case StateWaitingReconnect:
		return "waiting_reconnect"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

// Conn is one logical Redis connection: a multiplexer plus the goroutines
// that keep it fed from the wire (C9's run supervisor). The zero value is
// not usable; construct with NewConn.
//
// mu guards mux, stream, state, and reconnect. The critical section spans
// the parser and the full request queue, not just the socket, because the
// reader, writer, and health-check goroutines all reach into the
// multiplexer concurrently.
type Conn struct {
	cfg    Config
	logger Logger

	mu        sync.Mutex
	mux       *multiplexer
	push      *pushSink
	stream    net.Conn
	state     State
	reconnect bool

	wakeWriter chan struct{}
	activity   chan struct{}

	dialCancel context.CancelFunc // set while Run is resolving/connecting; Cancel(OpResolve) uses it
}

// NewConn builds a Conn from cfg, ready for Run. logger may be nil, in
// which case nothing is logged.
func NewConn(cfg Config, logger Logger) *Conn {
	if logger == nil {
		logger = NopLogger{}
	}
	mux := newMultiplexer(cfg.maxReadSize())
	return &Conn{
		cfg:        cfg,
		logger:     logger,
		mux:        mux,
		push:       mux.push,
		reconnect:  true,
		wakeWriter: make(chan struct{}, 1),
		activity:   make(chan struct{}, 1),
	}
}

// State reports the current run-supervisor phase.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Usage returns a snapshot of the running byte/command counters (spec §6
// Observability).
func (c *Conn) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mux.usage
}

// WillReconnect reports whether Run will attempt another connection after
// the current one ends, i.e. reconnection hasn't been disabled by
// Cancel(OpReconnection) and ReconnectWaitInterval is positive.
func (c *Conn) WillReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnect && c.cfg.ReconnectWaitInterval > 0
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run drives the connect/handshake/serve/reconnect state machine until ctx
// is cancelled or a non-reconnectable failure occurs (C9). It returns the
// error that ended the last connection attempt, or ctx.Err() once cancelled.
func (c *Conn) Run(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	for {
		c.setState(StateConnecting)
		dialTimeout := nonZero(c.cfg.ResolveTimeout, time.Second) +
			nonZero(c.cfg.ConnectTimeout, time.Second) +
			nonZero(c.cfg.SSLHandshakeTimeout, time.Second)
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		c.mu.Lock()
		c.dialCancel = cancel
		c.mu.Unlock()
		stream, err := dialStream(dialCtx, c.cfg)
		cancel()
		c.mu.Lock()
		c.dialCancel = nil
		c.mu.Unlock()
		if err != nil {
			c.logger.Warnf("redis: dial failed: %v", err)
			if done, rerr := c.afterAttempt(ctx, err); done {
				return rerr
			}
			continue
		}

		c.setState(StateHandshaking)
		hsCtx, hsCancel := context.WithTimeout(ctx, nonZero(c.cfg.ConnectTimeout, time.Second))
		herr := performHandshake(hsCtx, stream, c.cfg, c.logger)
		hsCancel()
		if herr != nil {
			stream.Close()
			c.logger.Warnf("redis: handshake failed: %v", herr)
			if done, rerr := c.afterAttempt(ctx, herr); done {
				return rerr
			}
			continue
		}

		c.mu.Lock()
		c.stream = stream
		c.push.reopen()
		c.state = StateRunning
		c.mu.Unlock()
		c.logger.Infof("redis: connected")

		runErr := c.runConnected(ctx, stream)
		stream.Close()

		c.mu.Lock()
		c.stream = nil
		c.mux.cancelOnConnLost()
		c.mu.Unlock()
		c.push.cancel()

		if runErr != nil {
			c.logger.Warnf("redis: connection lost: %v", runErr)
		}
		if done, rerr := c.afterAttempt(ctx, runErr); done {
			return rerr
		}
	}
}

// afterAttempt decides whether Run should stop (true) or wait and retry
// (false) after a failed dial/handshake/serve cycle.
func (c *Conn) afterAttempt(ctx context.Context, err error) (stop bool, finalErr error) {
	if ctx.Err() != nil {
		c.terminate()
		return true, ctx.Err()
	}
	if c.waitReconnect(ctx) {
		return false, nil
	}
	c.terminate()
	return true, err
}

func (c *Conn) terminate() {
	c.mu.Lock()
	c.state = StateTerminated
	c.mux.cancelWaiting()
	c.mu.Unlock()
	c.push.cancel()
}

func (c *Conn) waitReconnect(ctx context.Context) bool {
	c.mu.Lock()
	interval := c.cfg.ReconnectWaitInterval
	reconnect := c.reconnect
	c.state = StateWaitingReconnect
	c.mu.Unlock()
	if !reconnect || interval <= 0 {
		return false
	}
	t := time.NewTimer(interval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// runConnected runs the reader, writer, and health-check goroutines for one
// established stream until any of them fails, using an errgroup the way
// franz-go's client coordinates its per-broker connection goroutines: the
// first failure cancels the shared context and Wait collects it.
func (c *Conn) runConnected(ctx context.Context, stream net.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-gctx.Done():
			stream.Close()
		case <-stop:
		}
	}()

	g.Go(func() error { return c.readLoop(gctx, stream) })
	g.Go(func() error { return c.writeLoop(gctx, stream) })

	hc := newHealthChecker(c.cfg, c.pingOnce)
	g.Go(func() error { return hc.run(gctx, c.activity) })

	return g.Wait()
}

func (c *Conn) pingOnce(ctx context.Context) error {
	req := NewRequestWithConfig(RequestConfig{
		CancelOnConnectionLost: true,
		CancelIfUnresponded:    true,
		HelloWithPriority:      false,
	})
	req.Push("PING", c.cfg.HealthCheckID)
	_, err := c.Exec(ctx, req, &IgnoreAdapter{})
	return err
}

func (c *Conn) readLoop(ctx context.Context, stream net.Conn) error {
	for {
		c.mu.Lock()
		hint := c.mux.parser.SuggestedBufferGrowth(0)
		span, err := c.mux.readBuf.prepareAppend(hint)
		c.mu.Unlock()
		if err != nil {
			return err
		}

		n, rerr := stream.Read(span)
		if n > 0 {
			c.mu.Lock()
			c.mux.readBuf.commitAppend(n)
			for {
				complete, _, perr := c.mux.commitRead()
				if perr != nil {
					c.mu.Unlock()
					return perr
				}
				if !complete {
					break
				}
				select {
				case c.activity <- struct{}{}:
				default:
				}
			}
			c.mu.Unlock()
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return wrapErr(KindStreamRead, rerr)
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context, stream net.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.wakeWriter:
		}

		c.mu.Lock()
		n := c.mux.prepareWrite()
		if n == 0 {
			c.mu.Unlock()
			continue
		}
		payload := append([]byte(nil), c.mux.stagedPayload()...)
		c.mu.Unlock()

		if _, err := stream.Write(payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return wrapErr(KindStreamWrite, err)
		}

		c.mu.Lock()
		c.mux.commitWrite(len(payload))
		c.mu.Unlock()
	}
}

// Exec submits req and blocks until resp has decoded every expected reply
// or ctx is cancelled (spec §6's exec()). resp may be nil to discard the
// reply entirely. Returns the total bytes the reply occupied on the wire.
func (c *Conn) Exec(ctx context.Context, req *Request, resp Adapter) (int, error) {
	if resp == nil {
		resp = &IgnoreAdapter{}
	}
	s := newSlot(req, resp)

	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return 0, ErrNotConnected
	}
	if req.Config.CancelIfNotConnected && c.state != StateRunning {
		c.mu.Unlock()
		return 0, ErrNotConnected
	}
	wake := c.mux.add(s)
	c.mu.Unlock()

	if wake {
		select {
		case c.wakeWriter <- struct{}{}:
		default:
		}
	}

	select {
	case <-s.done:
		return s.bytesRead, s.err
	case <-ctx.Done():
		return c.cancelExec(s)
	}
}

// cancelExec implements C10's per-operation cancel for one exec. A slot
// still waiting_write is retracted from the queue and failed outright. One
// already staged or written has already committed bytes to, or past, the
// wire, so the only way to stop waiting on its reply is to tear the
// connection down; Run's reconnect loop then resolves the rest of the queue
// the same way any other connection loss would.
func (c *Conn) cancelExec(s *slot) (int, error) {
	c.mu.Lock()
	switch s.state {
	case slotDone:
		c.mu.Unlock()
		return s.bytesRead, s.err
	case slotWaitingWrite:
		c.mux.removeWaiting(s, ErrOperationAborted)
		c.mu.Unlock()
	default:
		c.mux.cancelWrittenTerminal(ErrOperationAborted)
		stream := c.stream
		c.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
	}
	return 0, ErrOperationAborted
}
