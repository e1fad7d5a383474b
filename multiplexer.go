package redis

// multiplexer is the queue of pending/in-flight request slots plus the
// buffers and parser that turn bytes into routed replies (C5). It is the
// single owner of the read/write buffers and the request FIFO; spec §5
// requires that no two callers mutate it concurrently, so every exported
// method here is called with Conn.mu held (see conn.go).
type multiplexer struct {
	queue []*slot // FIFO in wire order; state changes in place, position doesn't (except priority rotation)

	waitingCount int // count of queue entries currently in slotWaitingWrite, for O(1) add() trigger decisions

	writeBuf []byte
	readBuf  *readBuffer
	parser   *Parser

	push *pushSink

	curAdapter Adapter // nil between top-level messages
	curIsPush  bool

	usage Usage
}

func newMultiplexer(maxReadSize int) *multiplexer {
	return &multiplexer{
		readBuf: newReadBuffer(maxReadSize),
		parser:  NewParser(),
		push:    newPushSink(),
	}
}

// add appends slot at the tail, or -- if its config requests hello
// priority -- rotates it to the head of the waiting-write partition
// (after any slot already staged/written and any already-waiting priority
// slot, before the first already-waiting non-priority slot), preserving
// FIFO order among priority slots. It returns
// whether the caller should wake the writer: true iff no write was already
// outstanding (the waiting partition was empty before this add).
func (m *multiplexer) add(s *slot) bool {
	trigger := m.waitingCount == 0
	m.waitingCount++

	if !s.req.Config.HelloWithPriority {
		m.queue = append(m.queue, s)
		return trigger
	}

	insertAt := len(m.queue)
	for i, q := range m.queue {
		if q.state != slotWaitingWrite {
			continue
		}
		if q.req.Config.HelloWithPriority {
			continue // already-waiting priority slots keep their relative order
		}
		insertAt = i
		break
	}
	m.queue = append(m.queue, nil)
	copy(m.queue[insertAt+1:], m.queue[insertAt:])
	m.queue[insertAt] = s
	return trigger
}

// prepareWrite coalesces the payloads of all waiting_write slots into the
// staging buffer in queue order, marks them staged, and returns the byte
// count (0 means nothing to write).
func (m *multiplexer) prepareWrite() int {
	m.writeBuf = m.writeBuf[:0]
	for _, s := range m.queue {
		if s.state != slotWaitingWrite {
			continue
		}
		m.writeBuf = append(m.writeBuf, s.req.Payload()...)
		s.state = slotStaged
		m.waitingCount--
		m.usage.CommandsSent++
	}
	return len(m.writeBuf)
}

// stagedPayload returns the bytes prepareWrite coalesced, for the writer
// to hand to the stream.
func (m *multiplexer) stagedPayload() []byte { return m.writeBuf }

// commitWrite promotes all staged slots to written and clears the staging
// buffer. Zero-reply requests (fire-and-forget pushes like SUBSCRIBE) are
// completed and removed immediately since nothing will ever be routed back
// to them.
func (m *multiplexer) commitWrite(n int) {
	m.usage.BytesSent += uint64(n)
	kept := m.queue[:0]
	for _, s := range m.queue {
		if s.state == slotStaged {
			s.state = slotWritten
			if s.pending == 0 {
				s.finish(nil)
				continue
			}
		}
		kept = append(kept, s)
	}
	m.queue = kept
	m.writeBuf = m.writeBuf[:0]
}

// chooseRouting decides, from the first byte of the next reply, whether it
// is a push or belongs to the front-of-queue slot (spec §4.5 commit_read
// tie-break rules (a)-(c)).
func (m *multiplexer) chooseRouting(typeByte byte) (Adapter, bool) {
	isPushType := typeByte == '>'
	frontUnavailable := len(m.queue) == 0 || m.queue[0].state != slotWritten || m.queue[0].pending <= 0
	if isPushType || frontUnavailable {
		return m.push.resp, true
	}
	return m.queue[0].resp, false
}

// commitRead feeds the read buffer into the parser and, if a top-level
// reply completes, routes it to either the front slot's adapter or the
// push sink. Returns whether a reply completed this call and its size.
func (m *multiplexer) commitRead() (complete bool, replySize int, err error) {
	data := m.readBuf.committed()
	if len(data) == 0 {
		return false, 0, nil
	}

	if m.curAdapter == nil {
		adapter, isPush := m.chooseRouting(data[0])
		if adapter == nil {
			adapter = &IgnoreAdapter{}
		}
		m.curAdapter = adapter
		m.curIsPush = isPush
		adapter.Init()
	}

	consumed, done, perr := m.parser.Advance(data, m.curAdapter)
	rotated := m.readBuf.consume(consumed)
	m.usage.BytesRotated += uint64(rotated)
	if perr != nil {
		m.curAdapter = nil
		return false, 0, perr
	}
	if !done {
		return false, 0, nil
	}

	adapter := m.curAdapter
	isPush := m.curIsPush
	adapter.Done()
	m.curAdapter = nil

	if isPush {
		m.usage.PushesReceived++
		m.usage.PushBytes += uint64(consumed)
		m.push.deliver(pushResult{n: consumed})
		return true, consumed, nil
	}

	front := m.queue[0]
	front.pending--
	front.bytesRead += consumed
	m.usage.ResponsesReceived++
	m.usage.ResponseBytes += uint64(consumed)
	if front.pending <= 0 {
		m.queue = m.queue[1:]
		front.finish(nil)
	}
	return true, consumed, nil
}

// cancelWaiting removes and fails all waiting_write slots with
// operation_aborted (C10's cancel(exec)).
func (m *multiplexer) cancelWaiting() {
	kept := m.queue[:0]
	for _, s := range m.queue {
		if s.state == slotWaitingWrite {
			s.finish(ErrOperationAborted)
			m.waitingCount--
			continue
		}
		kept = append(kept, s)
	}
	m.queue = kept
}

// cancelOnConnLost applies each slot's reconnect policy after the stream
// is lost: a written-but-unresponded slot is kept (reset to waiting_write,
// to be re-sent in its original position) unless it asked to be cancelled
// both on unresponded loss and on connection loss; any other slot is kept
// unless it asked to be cancelled on connection loss.
func (m *multiplexer) cancelOnConnLost() {
	kept := m.queue[:0]
	m.waitingCount = 0
	for _, s := range m.queue {
		cfg := s.req.Config
		if s.state == slotWritten {
			if cfg.CancelIfUnresponded && cfg.CancelOnConnectionLost {
				s.finish(newErr(KindUnexpectedEOF))
				continue
			}
			s.state = slotWaitingWrite
			m.waitingCount++
			kept = append(kept, s)
			continue
		}
		if cfg.CancelOnConnectionLost {
			s.finish(ErrOperationAborted)
			continue
		}
		s.state = slotWaitingWrite
		m.waitingCount++
		kept = append(kept, s)
	}
	m.queue = kept
	m.curAdapter = nil
	m.parser.Reset()
	m.readBuf.clear()
}

// cancelWrittenTerminal fails every slot already committed to the wire
// (staged or written, unresponded) with err and removes it, used by C10's
// terminal per-exec cancellation, which can only be satisfied by tearing
// down the connection: the parser cannot skip a reply mid-stream, and a
// staged payload cannot be un-queued from the coalesced write buffer once
// prepareWrite has claimed it.
func (m *multiplexer) cancelWrittenTerminal(err error) {
	kept := m.queue[:0]
	for _, s := range m.queue {
		if s.state == slotStaged || s.state == slotWritten {
			s.finish(err)
			continue
		}
		kept = append(kept, s)
	}
	m.queue = kept
}

// removeWaiting retracts s from the queue and fails it with err, but only
// if s is still waiting_write. Returns false if s had already left that
// state (staged, written, or done) by the time the caller's lock was
// acquired, in which case the caller must not touch it here.
func (m *multiplexer) removeWaiting(s *slot, err error) bool {
	if s.state != slotWaitingWrite {
		return false
	}
	for i, q := range m.queue {
		if q == s {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	m.waitingCount--
	s.finish(err)
	return true
}
