package idesim

import "encoding/binary"
import "testing"

import "atadrv/src/irq"
import "atadrv/src/mem"
import "atadrv/src/pci"

func mkmach(t *testing.T, desc string) *Machine_t {
	t.Helper()
	mc, err := Parse([]byte(desc))
	if err != nil {
		t.Fatal(err)
	}
	m := MkMachine(mc)
	m.Cfg_write(m.Tag(), pci.COMMAND, 2, pci.CMD_IO_EN|pci.CMD_BUSMASTER)
	return m
}

const pair = `
busmaster: true
drives:
  "0:0":
    type: ata
    model: DISK
    cylinders: 10
    heads: 4
    sectors: 8
    dma: true
  "0:1":
    type: atapi
    medium_blocks: 5
`

func TestProgif(t *testing.T) {
	m := mkmach(t, "switchable: true\n")
	if pi := m.Cfg_read(m.Tag(), pci.PROGIF, 1); pi != 0x0a {
		t.Fatalf("progif %#x", pi)
	}
	m.Cfg_write(m.Tag(), pci.PROGIF, 1, 0x05)
	if pi := m.Cfg_read(m.Tag(), pci.PROGIF, 1); pi != 0x0f {
		t.Fatalf("progif after switch %#x", pi)
	}

	fixed := mkmach(t, "intline: 5\n")
	fixed.Cfg_write(fixed.Tag(), pci.PROGIF, 1, 0x05)
	if pi := fixed.Cfg_read(fixed.Tag(), pci.PROGIF, 1); pi != 0 {
		t.Fatalf("fixed progif changed to %#x", pi)
	}
	if il := fixed.Cfg_read(fixed.Tag(), pci.INTLINE, 1); il != 5 {
		t.Fatalf("intline %v", il)
	}
	if v := fixed.Cfg_read(pci.Mktag(0, 7, 0), 0, 4); v != 0xffffffff {
		t.Fatalf("absent function reads %#x", v)
	}
}

func TestDecode(t *testing.T) {
	mc, _ := Parse([]byte(pair))
	m := MkMachine(mc)
	if st := m.In8(0x1f7); st != 0xff {
		t.Fatalf("decoded with io disabled: %#x", st)
	}
	m.Cfg_write(m.Tag(), pci.COMMAND, 2, pci.CMD_IO_EN)
	if st := m.In8(0x1f7); st != 0x50 {
		t.Fatalf("status %#x", st)
	}
	if st := m.In8(0xc022); st != 0xff {
		t.Fatalf("bus master decoded without enable: %#x", st)
	}
	// empty channel
	if st := m.In8(0x177); st != 0 {
		t.Fatalf("empty channel status %#x", st)
	}
}

func TestSignatures(t *testing.T) {
	m := mkmach(t, pair)
	m.Out8(0x3f6, 0x06)
	if st := m.In8(0x3f6); st != 0x80 {
		t.Fatalf("status during reset %#x", st)
	}
	m.Out8(0x3f6, 0x02)
	want := []struct {
		sel      uint8
		lba1, l2 uint8
	}{
		{0xa0, 0, 0},
		{0xb0, 0x14, 0xeb},
	}
	for _, w := range want {
		m.Out8(0x1f6, w.sel)
		if m.In8(0x1f2) != 1 || m.In8(0x1f3) != 1 || m.In8(0x1f1) != 1 {
			t.Fatalf("%#x: count, lba0 or error not 1", w.sel)
		}
		if m.In8(0x1f4) != w.lba1 || m.In8(0x1f5) != w.l2 {
			t.Fatalf("%#x: signature %#x %#x", w.sel, m.In8(0x1f4), m.In8(0x1f5))
		}
	}
	// identify device aborts on a packet device
	m.Out8(0x1f7, 0xec)
	if st := m.In8(0x1f7); st&0x01 == 0 || m.In8(0x1f1) != 0x04 {
		t.Fatalf("identify on atapi: status %#x", st)
	}
}

func rdident(m *Machine_t) [256]uint16 {
	var w [256]uint16
	for i := range w {
		w[i] = m.In16(0x1f0)
	}
	return w
}

func TestIdentify(t *testing.T) {
	m := mkmach(t, pair)
	m.Out8(0x1f6, 0xa0)
	m.Out8(0x1f7, 0xec)
	if st := m.In8(0x1f7); st&0x08 == 0 {
		t.Fatalf("no data after identify: %#x", st)
	}
	w := rdident(m)
	if st := m.In8(0x1f7); st != 0x50 {
		t.Fatalf("status after data %#x", st)
	}
	if w[0] != 0x40 || w[1] != 10 || w[3] != 4 || w[6] != 8 {
		t.Fatalf("geometry words %v %v %v %v", w[0], w[1], w[3], w[6])
	}
	if w[49] != 1<<8 || w[63] != 7 || w[83]&(1<<10) != 0 {
		t.Fatalf("capability words %#x %#x %#x", w[49], w[63], w[83])
	}
	if w[27] != 'D'<<8|'I' || w[28] != 'S'<<8|'K' || w[29] != 0x2020 {
		t.Fatalf("model words %#x %#x %#x", w[27], w[28], w[29])
	}

	m.Out8(0x1f6, 0xb0)
	m.Out8(0x1f7, 0xa1)
	w = rdident(m)
	if w[0] != 0x8580 || w[49] != 1<<9 {
		t.Fatalf("packet identify %#x %#x", w[0], w[49])
	}
	if len(m.Log()) != 2 || m.Log()[1].Slot != "0:1" {
		t.Fatalf("log %v", m.Log())
	}
}

func TestPioChs(t *testing.T) {
	m := mkmach(t, pair)
	m.Out8(0x1f6, 0xa0|1)
	m.Out8(0x1f2, 2)
	m.Out8(0x1f3, 8)
	m.Out8(0x1f4, 3)
	m.Out8(0x1f5, 0)
	m.Out8(0x1f7, 0x20)
	// cylinder 3, head 1, sector 8
	lba := uint64((3*4+1)*8 + 7)
	got := make([]uint8, 1024)
	for i := 0; i < len(got); i += 2 {
		binary.LittleEndian.PutUint16(got[i:], m.In16(0x1f0))
	}
	if binary.LittleEndian.Uint64(got) != lba ||
		binary.LittleEndian.Uint64(got[512:]) != lba+1 {
		t.Fatal("wrong sectors")
	}
	if l := m.Log(); len(l) != 1 || l[0].Lba != lba || l[0].Count != 2 {
		t.Fatalf("log %v", l)
	}

	// past the last cylinder
	m.Out8(0x1f5, 1)
	m.Out8(0x1f7, 0x20)
	if m.In8(0x1f7)&0x01 == 0 || m.In8(0x1f1) != 0x10 {
		t.Fatal("no IDNF")
	}
}

type hits_t struct {
	n int
}

func (h *hits_t) Intr(irq.Irqvec_t) {
	h.n++
}

func TestBusmaster(t *testing.T) {
	m := mkmach(t, pair)
	h := &hits_t{}
	m.Irqs.Register(46, h)
	io, ok := m.Mem.Alloc_io(2)
	if !ok {
		t.Fatal("alloc")
	}
	defer m.Mem.Free_io(io)
	tbl := io.Buf[mem.PGSIZE:]
	binary.LittleEndian.PutUint32(tbl, uint32(io.Pa))
	binary.LittleEndian.PutUint32(tbl[4:], 1024|1<<31)
	m.Out32(0xc024, uint32(io.Pas[1]))

	// sector 40: cylinder 1, head 1, sector 1
	m.Out8(0x1f6, 0xa1)
	m.Out8(0x3f6, 0)
	m.Out8(0x1f2, 2)
	m.Out8(0x1f3, 1)
	m.Out8(0x1f4, 1)
	m.Out8(0x1f5, 0)
	m.Out8(0x1f7, 0xc8)
	if m.In8(0x1f7)&0x08 == 0 {
		t.Fatal("no DRQ for dma")
	}
	m.Out8(0xc020, 0x09)
	if h.n != 1 {
		t.Fatalf("%v interrupts", h.n)
	}
	if st := m.In8(0xc022); st != 0x04 {
		t.Fatalf("bus master status %#x", st)
	}
	if binary.LittleEndian.Uint64(io.Buf) != 40 ||
		binary.LittleEndian.Uint64(io.Buf[512:]) != 41 {
		t.Fatal("wrong data")
	}
	if p := m.Lastprd(); len(p) != 1 || p[0].Cnt != 1024|1<<31 {
		t.Fatalf("prd %v", p)
	}
	m.Out8(0xc022, 0x04)
	if st := m.In8(0xc022); st != 0 {
		t.Fatalf("status not cleared %#x", st)
	}

	// masked interrupts are not delivered
	m.Out8(0xc020, 0x08)
	m.Out8(0x3f6, 0x02)
	m.Out8(0x1f7, 0xc8)
	m.Out8(0xc020, 0x09)
	if h.n != 1 {
		t.Fatalf("interrupt with nIEN set")
	}
}
