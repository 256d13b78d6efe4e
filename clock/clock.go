package clock

import "time"

// Clock is the time source consumed by elapsed-time guards.
// The adjustable implementation lets tests move time forward
// without sleeping.
type Clock interface {
	Now() time.Time
	Advance(d time.Duration)
	Reset()
}

type clock struct {
	delta time.Duration
}

func (c *clock) Now() time.Time {
	return time.Now().Add(c.delta)
}

func (c *clock) Advance(d time.Duration) {
	c.delta += d
}

func (c *clock) Reset() {
	c.delta = 0
}

func Make() Clock {
	return &clock{}
}

// Fixed returns a Clock pinned to t; Advance moves it, Reset returns to t.
func Fixed(t time.Time) Clock {
	return &fixed{origin: t, now: t}
}

type fixed struct {
	origin time.Time
	now    time.Time
}

func (c *fixed) Now() time.Time {
	return c.now
}

func (c *fixed) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fixed) Reset() {
	c.now = c.origin
}
