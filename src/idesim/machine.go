// Package idesim simulates a PC with one PCI IDE controller at the
// register level: configuration space, the command, control and bus
// master register banks of both channels, up to four drives, bus master
// DMA into simulated physical memory and interrupt delivery.
package idesim

import "encoding/binary"
import "sync"

import "github.com/coreos/pkg/capnslog"

import "atadrv/src/defs"
import "atadrv/src/irq"
import "atadrv/src/mem"
import "atadrv/src/pci"

var plog = capnslog.NewPackageLogger("atadrv", "idesim")

// native mode register layout, BAR1 and BAR3 point 2 below the control
// register
const (
	nat0cmd = 0xc000
	nat0ctl = 0xc010
	nat1cmd = 0xc008
	nat1ctl = 0xc018
	bmbase  = 0xc020
)

var legacy = [2]struct{ cmd, ctl uint16 }{
	{0x1f0, 0x3f6},
	{0x170, 0x376},
}

/// Cmd_t is one command a drive received.
type Cmd_t struct {
	Slot  string
	Cmd   uint8
	Lba   uint64
	Count int
}

/// Prd_t is a PRD table entry as a bus master read it.
type Prd_t struct {
	Addr uint32
	Cnt  uint32
}

/// Machine_t is the simulated machine. It implements port.Port_i,
/// pci.Cfgspace_i and pci.Lister_i.
type Machine_t struct {
	sync.Mutex
	cfg     Machinecfg_t
	ide     pci.Pcitag_t
	space   map[pci.Pcitag_t]*[256]uint8
	chans   [2]*simchan_t
	log     []Cmd_t
	lastprd []Prd_t
	naccess int
	Mem     *mem.Simmem_t
	Irqs    *irq.Irqs_t
	Clock   *Clock_t
}

type simchan_t struct {
	n      int
	drives [2]*simdrive_t
	sel    int
	ctl    uint8
	bmcmd  uint8
	bmstat uint8
	prdt   uint32
}

/// MkMachine builds a machine from a validated description.
func MkMachine(mc *Machinecfg_t) *Machine_t {
	m := &Machine_t{cfg: *mc}
	m.Mem = mem.MkSimmem(mc.Mempages)
	m.Irqs = irq.MkIrqs()
	m.Clock = MkClock()
	m.space = make(map[pci.Pcitag_t]*[256]uint8)

	host := &[256]uint8{}
	binary.LittleEndian.PutUint16(host[pci.VENDORID:], 0x8086)
	binary.LittleEndian.PutUint16(host[pci.DEVICEID:], 0x1237)
	host[pci.CLASS] = 0x06
	m.space[pci.Mktag(0, 0, 0)] = host

	m.ide = pci.Mktag(0, 1, 1)
	c := &[256]uint8{}
	binary.LittleEndian.PutUint16(c[pci.VENDORID:], 0x8086)
	binary.LittleEndian.PutUint16(c[pci.DEVICEID:], 0x7010)
	c[pci.CLASS] = pci.CLASS_STORAGE
	c[pci.SUBCLASS] = pci.SUBCLASS_IDE
	var progif uint8
	if mc.Native {
		progif |= 0x05
	}
	if mc.Switchable {
		progif |= 0x0a
	}
	if mc.Busmaster {
		progif |= 0x80
		binary.LittleEndian.PutUint32(c[pci.BAR4:], bmbase|1)
	}
	c[pci.PROGIF] = progif
	binary.LittleEndian.PutUint32(c[pci.BAR0:], nat0cmd|1)
	binary.LittleEndian.PutUint32(c[pci.BAR1:], nat0ctl|1)
	binary.LittleEndian.PutUint32(c[pci.BAR2:], nat1cmd|1)
	binary.LittleEndian.PutUint32(c[pci.BAR3:], nat1ctl|1)
	c[pci.INTLINE] = mc.Intline
	m.space[m.ide] = c

	for i := range m.chans {
		m.chans[i] = &simchan_t{n: i}
	}
	for s, dc := range mc.Drives {
		if dc.Type == "" {
			continue
		}
		ci, di, _ := slotidx(s)
		m.chans[ci].drives[di] = mkdrive(s, dc)
	}
	return m
}

/// Tag returns the address of the IDE controller.
func (m *Machine_t) Tag() pci.Pcitag_t {
	return m.ide
}

func (m *Machine_t) Tags() []pci.Pcitag_t {
	return []pci.Pcitag_t{pci.Mktag(0, 0, 0), m.ide}
}

func (m *Machine_t) Cfg_read(t pci.Pcitag_t, off, size int) uint32 {
	m.Lock()
	defer m.Unlock()
	sp, ok := m.space[t]
	if !ok {
		return 0xffffffff
	}
	var b [4]uint8
	copy(b[:size], sp[off:off+size])
	return binary.LittleEndian.Uint32(b[:])
}

func (m *Machine_t) Cfg_write(t pci.Pcitag_t, off, size int, v uint32) {
	m.Lock()
	defer m.Unlock()
	sp, ok := m.space[t]
	if !ok || t != m.ide {
		return
	}
	var b [4]uint8
	binary.LittleEndian.PutUint32(b[:], v)
	for i := 0; i < size; i++ {
		r := off + i
		switch {
		case r == pci.PROGIF:
			// only the mode bits of programmable channels change
			cur := sp[r]
			mask := (cur & 0x0a) >> 1
			sp[r] = cur&^mask | b[i]&mask
		case r >= pci.COMMAND && r < pci.COMMAND+2,
			r >= pci.BAR0 && r < pci.BAR5:
			sp[r] = b[i]
		}
	}
}

func (m *Machine_t) cfg16(off int) uint16 {
	return binary.LittleEndian.Uint16(m.space[m.ide][off:])
}

func (m *Machine_t) cfg32(off int) uint32 {
	return binary.LittleEndian.Uint32(m.space[m.ide][off:])
}

func (m *Machine_t) native(c int) bool {
	return m.space[m.ide][pci.PROGIF]&(1<<uint(2*c)) != 0
}

func (m *Machine_t) vec(c int) irq.Irqvec_t {
	if m.native(c) {
		return irq.Irqvec_t(defs.IRQ_BASE + int(m.space[m.ide][pci.INTLINE]))
	}
	return irq.Irqvec_t(defs.IRQ_BASE + defs.IRQ_ATA1 + c)
}

const (
	k_none = iota
	k_cmd
	k_ctl
	k_bm
)

// maps a port to a channel register; caller holds the lock
func (m *Machine_t) decode(p uint16) (*simchan_t, int, uint16) {
	cmd := uint32(m.cfg16(pci.COMMAND))
	if cmd&pci.CMD_IO_EN == 0 {
		return nil, k_none, 0
	}
	for c, ch := range m.chans {
		var cb, ctl uint16
		if m.native(c) {
			cb = uint16(m.cfg32(pci.BAR0+8*c) &^ 3)
			ctl = uint16(m.cfg32(pci.BAR1+8*c)&^3) + 2
		} else {
			cb, ctl = legacy[c].cmd, legacy[c].ctl
		}
		switch {
		case p >= cb && p < cb+8:
			return ch, k_cmd, p - cb
		case p == ctl:
			return ch, k_ctl, 0
		}
		if m.cfg.Busmaster && cmd&pci.CMD_BUSMASTER != 0 {
			bm := uint16(m.cfg32(pci.BAR4)&^3) + uint16(8*c)
			if p >= bm && p < bm+8 {
				return ch, k_bm, p - bm
			}
		}
	}
	return nil, k_none, 0
}

func (ch *simchan_t) cur() *simdrive_t {
	return ch.drives[ch.sel]
}

func (m *Machine_t) In8(p uint16) uint8 {
	m.Lock()
	defer m.Unlock()
	m.naccess++
	ch, k, off := m.decode(p)
	switch k {
	case k_cmd:
		if d := ch.cur(); d != nil {
			return d.rd(int(off))
		}
		return 0
	case k_ctl:
		if d := ch.cur(); d != nil {
			return d.status
		}
		return 0
	case k_bm:
		switch off {
		case 0:
			return ch.bmcmd
		case 2:
			return ch.bmstat
		}
	}
	return 0xff
}

func (m *Machine_t) Out8(p uint16, v uint8) {
	var deliver bool
	var vec irq.Irqvec_t
	m.Lock()
	m.naccess++
	ch, k, off := m.decode(p)
	switch k {
	case k_cmd:
		m.wrcmd(ch, int(off), v)
	case k_ctl:
		m.wrctl(ch, v)
	case k_bm:
		switch off {
		case 0:
			was := ch.bmcmd
			ch.bmcmd = v & 0x09
			if v&1 != 0 && was&1 == 0 {
				deliver = m.bmstart(ch) && ch.ctl&0x02 == 0
				vec = m.vec(ch.n)
			}
		case 2:
			ch.bmstat &^= v & 0x06
			ch.bmstat = ch.bmstat&^0x60 | v&0x60
		}
	}
	m.Unlock()
	if deliver {
		m.Irqs.Deliver(vec)
	}
}

func (m *Machine_t) In16(p uint16) uint16 {
	m.Lock()
	defer m.Unlock()
	m.naccess++
	ch, k, off := m.decode(p)
	if k == k_cmd && off == 0 {
		if d := ch.cur(); d != nil {
			return d.rddata()
		}
	}
	return 0xffff
}

func (m *Machine_t) Out16(p uint16, v uint16) {
	m.Lock()
	defer m.Unlock()
	m.naccess++
	ch, k, off := m.decode(p)
	if k == k_cmd && off == 0 {
		if d := ch.cur(); d != nil {
			d.wrdata(v)
		}
	}
}

func (m *Machine_t) In32(p uint16) uint32 {
	m.Lock()
	defer m.Unlock()
	m.naccess++
	ch, k, off := m.decode(p)
	if k == k_bm && off == 4 {
		return ch.prdt
	}
	return 0xffffffff
}

func (m *Machine_t) Out32(p uint16, v uint32) {
	m.Lock()
	defer m.Unlock()
	m.naccess++
	ch, k, off := m.decode(p)
	if k == k_bm && off == 4 {
		ch.prdt = v &^ 3
	}
}

func (m *Machine_t) wrcmd(ch *simchan_t, reg int, v uint8) {
	switch reg {
	case 0:
	case 6:
		ch.sel = int(v>>4) & 1
		fallthrough
	case 1, 2, 3, 4, 5:
		for _, d := range ch.drives {
			if d != nil {
				d.wr(reg, v)
			}
		}
	case 7:
		d := ch.cur()
		if d == nil {
			return
		}
		if c, ok := d.exec(v); ok {
			m.log = append(m.log, c)
			if d.xf != nil && d.xf.dma {
				ch.bmstat &^= 0x01
			}
		}
	}
}

func (m *Machine_t) wrctl(ch *simchan_t, v uint8) {
	was := ch.ctl
	ch.ctl = v
	switch {
	case v&0x04 != 0 && was&0x04 == 0:
		for _, d := range ch.drives {
			if d != nil {
				d.status = 0x80
				d.xf = nil
				d.buf = nil
			}
		}
	case v&0x04 == 0 && was&0x04 != 0:
		for _, d := range ch.drives {
			if d != nil {
				d.reset()
			}
		}
		ch.sel = 0
	}
}

/// Log returns the commands received so far.
func (m *Machine_t) Log() []Cmd_t {
	m.Lock()
	defer m.Unlock()
	return append([]Cmd_t(nil), m.log...)
}

/// Resetlog forgets the received commands.
func (m *Machine_t) Resetlog() {
	m.Lock()
	defer m.Unlock()
	m.log = nil
}

/// Accesses returns the number of port accesses so far.
func (m *Machine_t) Accesses() int {
	m.Lock()
	defer m.Unlock()
	return m.naccess
}

/// Lastprd returns the PRD table of the last completed DMA transfer.
func (m *Machine_t) Lastprd() []Prd_t {
	m.Lock()
	defer m.Unlock()
	return append([]Prd_t(nil), m.lastprd...)
}

/// Sector returns a copy of the contents of sector lba of the drive in
/// slot, or nil if there is no such drive.
func (m *Machine_t) Sector(slot string, lba uint64) []uint8 {
	m.Lock()
	defer m.Unlock()
	c, d, ok := slotidx(slot)
	if !ok || m.chans[c].drives[d] == nil {
		return nil
	}
	return append([]uint8(nil), m.chans[c].drives[d].sector(lba)...)
}
