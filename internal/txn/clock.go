package txn

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a settable clock for tests and replays.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.T
}

func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
