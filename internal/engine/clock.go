package engine

// Clock hands out the sequence numbers that order events scheduled for the
// same simulated time. The first call to Next returns the starting value, so
// a fresh queue numbers its entries 0, 1, 2, ...
//
// Clock is not safe for concurrent use; the engine is single-threaded.
type Clock struct {
	seq int64
}

// NewClock creates a clock whose first Next returns 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start.
func NewClockAt(start int64) *Clock {
	return &Clock{seq: start}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	s := c.seq
	c.seq++
	return s
}

// Current returns the value the next call to Next will return.
func (c *Clock) Current() int64 {
	return c.seq
}
