package ide

import "time"

/// Clock_i is the driver's source of elapsed time. Resets and DMA polling
/// sleep on it, DMA timeouts compare against Now.
type Clock_i interface {
	Now() time.Time
	Sleep(time.Duration)
}

type realclock_t struct{}

func (realclock_t) Now() time.Time        { return time.Now() }
func (realclock_t) Sleep(d time.Duration) { time.Sleep(d) }

/// Realclock is the wall clock.
var Realclock Clock_i = realclock_t{}
