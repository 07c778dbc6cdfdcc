package limits

import "sync/atomic"
import "time"

/// Lhits counts limit hits.
var Lhits atomic.Int64

/// Sysatomic_t is a numeric limit that can be atomically updated.
type Sysatomic_t int64

/// Syslimit_t holds the driver tunables and resource limits.
type Syslimit_t struct {
	// status register polls before a long wait gives up (reset, identify,
	// command start)
	Spin int
	// polls for the data handshake between sectors of one command
	Spinshort int
	// wall clock budget for one DMA chunk
	Dmatimeout time.Duration
	// sleep between polls of the interrupt flag during DMA
	Dmapoll time.Duration
	// how long SRST is held and how long the drive settles afterwards
	Resethold time.Duration
	// use bus-master DMA when controller and drive support it
	Dma bool
	// pages that may be allocated for DMA data and PRD tables at once
	Dmapgs Sysatomic_t
}

/// Syslimit describes the configured limits.
var Syslimit *Syslimit_t = MkSysLimit()

/// MkSysLimit returns a pointer to the default set of limits.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		Spin:       1e6,
		Spinshort:  1e4,
		Dmatimeout: 5 * time.Second,
		Dmapoll:    50 * time.Microsecond,
		Resethold:  5 * time.Millisecond,
		Dma:        false,
		// 64 chunks of 64KB plus their PRD pages
		Dmapgs: 64 * 17,
	}
}

func (s *Sysatomic_t) _aptr() *int64 {
	return (*int64)(s)
}

/// Load returns the amount currently available.
func (s *Sysatomic_t) Load() int64 {
	return atomic.LoadInt64(s._aptr())
}

/// Given increases the limit by the provided amount.
func (s *Sysatomic_t) Given(_n uint) {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	atomic.AddInt64(s._aptr(), n)
}

/// Taken tries to decrement the limit by the provided amount.
/// It returns true on success.
func (s *Sysatomic_t) Taken(_n uint) bool {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	g := atomic.AddInt64(s._aptr(), -n)
	if g >= 0 {
		return true
	}
	atomic.AddInt64(s._aptr(), n)
	Lhits.Add(1)
	return false
}
