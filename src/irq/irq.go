package irq

import "sync"

import "github.com/coreos/pkg/capnslog"

var plog = capnslog.NewPackageLogger("atadrv", "irq")

/// Irqvec_t represents an interrupt vector.
type Irqvec_t uint

/// Handler_i is notified when a vector it registered for fires. Intr runs on
/// the delivering goroutine and must not block.
type Handler_i interface {
	Intr(Irqvec_t)
}

/// Irqs_t dispatches vectors to registered handlers. Several handlers may
/// share one vector, as PCI INTx lines are shared.
type Irqs_t struct {
	sync.Mutex
	handlers map[Irqvec_t][]Handler_i
	nspur    int
}

/// MkIrqs returns an empty dispatch table.
func MkIrqs() *Irqs_t {
	return &Irqs_t{handlers: make(map[Irqvec_t][]Handler_i)}
}

/// Register adds h to the handlers of vector.
func (ir *Irqs_t) Register(vector Irqvec_t, h Handler_i) {
	ir.Lock()
	defer ir.Unlock()

	for _, o := range ir.handlers[vector] {
		if o == h {
			panic("double register")
		}
	}
	ir.handlers[vector] = append(ir.handlers[vector], h)
}

/// Unregister removes h from vector.
func (ir *Irqs_t) Unregister(vector Irqvec_t, h Handler_i) {
	ir.Lock()
	defer ir.Unlock()

	hs := ir.handlers[vector]
	for i, o := range hs {
		if o == h {
			ir.handlers[vector] = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
	panic("not registered")
}

/// Deliver invokes every handler of vector and reports whether there was
/// one.
func (ir *Irqs_t) Deliver(vector Irqvec_t) bool {
	ir.Lock()
	hs := ir.handlers[vector]
	if len(hs) == 0 {
		ir.nspur++
		ir.Unlock()
		plog.Debugf("spurious vector %v", vector)
		return false
	}
	ir.Unlock()
	for _, h := range hs {
		h.Intr(vector)
	}
	return true
}

/// Spurious returns how many deliveries found no handler.
func (ir *Irqs_t) Spurious() int {
	ir.Lock()
	defer ir.Unlock()
	return ir.nspur
}
