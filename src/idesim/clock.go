package idesim

import "sync"
import "time"

/// Clock_t is a virtual clock. Sleep advances it instantly.
type Clock_t struct {
	sync.Mutex
	now    time.Time
	Nsleep int
}

/// MkClock returns a clock set to the Unix epoch.
func MkClock() *Clock_t {
	return &Clock_t{now: time.Unix(0, 0)}
}

func (c *Clock_t) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.now
}

func (c *Clock_t) Sleep(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(d)
	c.Nsleep++
}

/// Elapsed returns the virtual time since the epoch.
func (c *Clock_t) Elapsed() time.Duration {
	return c.Now().Sub(time.Unix(0, 0))
}
