package irq

import "sync/atomic"
import "testing"

type counter_t struct {
	n    atomic.Int32
	last atomic.Uint32
}

func (c *counter_t) Intr(v Irqvec_t) {
	c.n.Add(1)
	c.last.Store(uint32(v))
}

func TestDeliver(t *testing.T) {
	ir := MkIrqs()
	a, b := &counter_t{}, &counter_t{}
	ir.Register(46, a)
	ir.Register(47, b)
	ir.Register(47, a)

	if !ir.Deliver(47) {
		t.Fatal("no handler for 47")
	}
	if a.n.Load() != 1 || b.n.Load() != 1 || a.last.Load() != 47 {
		t.Fatalf("a %v b %v", a.n.Load(), b.n.Load())
	}
	if ir.Deliver(50) {
		t.Fatal("50 has no handler")
	}
	if ir.Spurious() != 1 {
		t.Fatalf("spurious %v", ir.Spurious())
	}

	ir.Unregister(47, a)
	ir.Deliver(47)
	if a.n.Load() != 1 || b.n.Load() != 2 {
		t.Fatalf("after unregister a %v b %v", a.n.Load(), b.n.Load())
	}
}

func TestDoubleRegister(t *testing.T) {
	ir := MkIrqs()
	a := &counter_t{}
	ir.Register(46, a)
	defer func() {
		if recover() == nil {
			t.Fatal("double register did not panic")
		}
	}()
	ir.Register(46, a)
}
