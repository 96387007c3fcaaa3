package store

import "sync/atomic"

// Clock tracks the highest commit sequence number a Store has seen.
//
// Sequence numbers are assigned by the journal itself; the clock only
// moves forward to values that were actually recorded.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start.
// Used on Open to resume after the last recorded commit.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Observe advances the clock to seq. Lower values are ignored, so the
// clock never moves backwards.
func (c *Clock) Observe(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Current returns the highest sequence number observed.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
