package redis

import (
	"context"
	"sync"
	"time"
)

// healthChecker drives C7: a PING is pushed every Interval, and a reply to
// anything (not just the pong itself) within 2*Interval resets the
// deadline. Inert whenever Interval is zero, matching Config's default.
type healthChecker struct {
	interval time.Duration
	id       string
	ping     func(ctx context.Context) error
}

func newHealthChecker(cfg Config, ping func(ctx context.Context) error) *healthChecker {
	return &healthChecker{
		interval: cfg.HealthCheckInterval,
		id:       cfg.HealthCheckID,
		ping:     ping,
	}
}

// run blocks until ctx is cancelled (nil) or the deadline fires
// (ErrPongTimeout), consuming signals off activity every time the
// multiplexer completes a reply (commitRead), as those postpone the next
// pong_timeout regardless of whether the traffic was the health check's
// own pong.
func (h *healthChecker) run(ctx context.Context, activity <-chan struct{}) error {
	if h.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	send := time.NewTicker(h.interval)
	defer send.Stop()
	deadline := time.NewTimer(2 * h.interval)
	defer deadline.Stop()

	// Each PING runs in its own goroutine, so a ping still waiting for its
	// reply does not keep the deadline from firing. Pings are cancelled and
	// waited for before run returns.
	pingCtx, cancelPings := context.WithCancel(ctx)
	var pings sync.WaitGroup
	defer pings.Wait()
	defer cancelPings()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-send.C:
			pings.Add(1)
			go func() {
				defer pings.Done()
				_ = h.ping(pingCtx)
			}()
		case <-activity:
			drainTimer(deadline)
			deadline.Reset(2 * h.interval)
		case <-deadline.C:
			return ErrPongTimeout
		}
	}
}

func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
