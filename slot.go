package redis

// slotState is the multiplexer's per-request lifecycle (spec §3 "Request
// slot"): waiting_write -> staged -> written -> done.
type slotState int

const (
	slotWaitingWrite slotState = iota
	slotStaged
	slotWritten
	slotDone
)

// slot is the multiplexer's tracking record for one outstanding request
// (C4's "request slot"). It is shared by the submitter (which blocks on
// done) and the multiplexer (which owns state transitions); the last
// holder drops it once done closes.
type slot struct {
	req     *Request
	resp    Adapter
	pending int // replies still owed, initialized to req.ExpectedReplies()
	state   slotState

	bytesRead int
	err       error
	done      chan struct{}
}

func newSlot(req *Request, resp Adapter) *slot {
	return &slot{
		req:     req,
		resp:    resp,
		pending: req.ExpectedReplies(),
		state:   slotWaitingWrite,
		done:    make(chan struct{}),
	}
}

// finish records err (possibly nil) and signals done. Safe to call exactly
// once per slot.
func (s *slot) finish(err error) {
	s.err = err
	s.state = slotDone
	close(s.done)
}
