package ide

import "fmt"
import "sync"
import "sync/atomic"

import "github.com/coreos/pkg/capnslog"
import "github.com/pkg/errors"

import "atadrv/src/bdev"
import "atadrv/src/defs"
import "atadrv/src/irq"
import "atadrv/src/limits"
import "atadrv/src/mem"
import "atadrv/src/pci"
import "atadrv/src/port"
import "atadrv/src/stats"

var plog = capnslog.NewPackageLogger("atadrv", "ide")

const ide_debug = false

func dbg(x string, args ...interface{}) {
	if ide_debug {
		plog.Debugf(x, args...)
	}
}

/// ErrNotide is returned by Attach for functions of another class.
var ErrNotide = errors.New("not an IDE controller")

/// Env_t is what the driver needs from its host.
type Env_t struct {
	Io  port.Port_i
	Mem mem.Iomem_i
	// nil means DMA completion is polled
	Irqs  *irq.Irqs_t
	Clock Clock_i
	// nil means limits.Syslimit
	Lim *limits.Syslimit_t
}

/// Channel_t is the state of one of the two ATA buses of a controller.
type Channel_t struct {
	regs Regs_t
	vec  irq.Irqvec_t
	// drive whose select was written last, -1 if unknown
	lastsel int
	// drive interrupts are masked with nIEN
	nien bool
	// set by the interrupt handler, cleared by the DMA engine
	pending atomic.Bool
	types   [2]Drivetype_t
	native  bool
}

/// Idestat_t counts controller activity. Tdma is the time spent waiting
/// for bus master completion.
type Idestat_t struct {
	Nread       stats.Counter_t
	Nwrite      stats.Counter_t
	Nsectr      stats.Counter_t
	Nsectw      stats.Counter_t
	Nchunk      stats.Counter_t
	Nshort      stats.Counter_t
	Ndma        stats.Counter_t
	Ndmato      stats.Counter_t
	Ndmarestart stats.Counter_t
	Nintr       stats.Counter_t
	Tdma        stats.Cycles_t
}

/// Ide_t is one PCI IDE controller. The mutex is held for the whole of
/// every transfer, on either channel.
type Ide_t struct {
	sync.Mutex
	dev    *pci.Pcidev_t
	env    Env_t
	lim    *limits.Syslimit_t
	chans  [2]Channel_t
	dma    bool
	// Dmapgs when the controller attached
	dmabudget int
	drives    []*Drive_t
	Stat      Idestat_t
}

/// Attach enables the controller's I/O decoding and bus mastering, moves
/// the channels to native mode where that is programmable, and resets and
/// identifies all four drive slots. Drives that fail any step are left
/// out silently.
func Attach(dev *pci.Pcidev_t, env *Env_t) (*Ide_t, error) {
	if dev.Class != pci.CLASS_STORAGE || dev.Subclass != pci.SUBCLASS_IDE {
		return nil, errors.Wrapf(ErrNotide, "%v class %#x/%#x", dev.Tag,
			dev.Class, dev.Subclass)
	}
	ide := &Ide_t{dev: dev, env: *env}
	ide.lim = env.Lim
	if ide.lim == nil {
		ide.lim = limits.Syslimit
	}
	if ide.env.Clock == nil {
		ide.env.Clock = Realclock
	}
	ide.dmabudget = int(ide.lim.Dmapgs.Load())

	cmd := dev.Pci_read(pci.COMMAND, 2) | pci.CMD_IO_EN
	progif := dev.Progif()
	if progif&0x80 != 0 {
		if dev.Bar(4)&^3 == 0 {
			plog.Warningf("%v: bus master without BAR4", dev.Tag)
		} else {
			cmd |= pci.CMD_BUSMASTER
			ide.dma = true
		}
	}
	dev.Pci_write(pci.COMMAND, 2, cmd)

	for c := range ide.chans {
		ch := &ide.chans[c]
		native := uint8(1) << uint(2*c)
		prog := uint8(2) << uint(2*c)
		if progif&native == 0 && progif&prog != 0 {
			dev.Pci_write(pci.PROGIF, 1, uint32(progif|native))
			progif = dev.Progif()
			if progif&native == 0 {
				plog.Infof("%v: channel %v refused native mode", dev.Tag, c)
			}
		}
		ch.regs.io = env.Io
		if progif&native == 0 {
			ch.regs.Cmd = legacy[c].cmd
			ch.regs.Ctl = legacy[c].ctl + 2
			ch.vec = irq.Irqvec_t(defs.IRQ_BASE + defs.IRQ_ATA1 + c)
		} else {
			ch.native = true
			ch.regs.Cmd = uint16(dev.Bar(2*c) &^ 3)
			ch.regs.Ctl = uint16(dev.Bar(2*c+1)&^3) + 2
			il := dev.Pci_read(pci.INTLINE, 1)
			ch.vec = irq.Irqvec_t(defs.IRQ_BASE + int(il))
		}
		if ide.dma {
			ch.regs.Bm = uint16(dev.Bar(4)&^3) + uint16(8*c)
		}
		ch.lastsel = -1
		dbg("%v: channel %v cmd %#x ctl %#x bm %#x vec %v", dev.Tag, c,
			ch.regs.Cmd, ch.regs.Ctl, ch.regs.Bm, ch.vec)
	}

	if env.Irqs != nil {
		vecs := []irq.Irqvec_t{ide.chans[0].vec}
		if ide.chans[1].vec != ide.chans[0].vec {
			vecs = append(vecs, ide.chans[1].vec)
		}
		for _, v := range vecs {
			env.Irqs.Register(v, ide)
		}
	}

	ide.probe()
	plog.Infof("%v: %v drives, dma %v", ide, len(ide.drives), ide.dma)
	return ide, nil
}

func (ide *Ide_t) probe() {
	var slots []Slot_t
	for c := 0; c < 2; c++ {
		for d := 0; d < 2; d++ {
			s := Slot_t{c, d}
			t := ide.reset(s)
			ide.chans[c].types[d] = t
			plog.Debugf("%v %v: %v", ide, s, t)
			if t != DT_NONE {
				slots = append(slots, s)
			}
		}
	}
	for _, s := range slots {
		id, ok := ide.identify(s, ide.chans[s.Chan].types[s.Drive])
		if !ok {
			continue
		}
		ide.drives = append(ide.drives, &Drive_t{ide: ide, id: *id})
	}
}

/// Intr marks a transfer interrupt pending on the channels using vec.
func (ide *Ide_t) Intr(vec irq.Irqvec_t) {
	ide.Stat.Nintr.Inc()
	for c := range ide.chans {
		if ide.chans[c].vec == vec {
			ide.chans[c].pending.Store(true)
		}
	}
}

/// Drives returns a handle for every identified drive.
func (ide *Ide_t) Drives() []*Drive_t {
	return append([]*Drive_t(nil), ide.drives...)
}

/// Dma reports whether the controller can bus master.
func (ide *Ide_t) Dma() bool {
	return ide.dma
}

/// Native reports whether channel c runs in native PCI mode.
func (ide *Ide_t) Native(c int) bool {
	return ide.chans[c].native
}

/// Types returns the detection result of every slot.
func (ide *Ide_t) Types() [2][2]Drivetype_t {
	return [2][2]Drivetype_t{ide.chans[0].types, ide.chans[1].types}
}

/// Stats returns the counters as text.
func (ide *Ide_t) Stats() string {
	return stats.Stats2String(&ide.Stat)
}

func (ide *Ide_t) String() string {
	return fmt.Sprintf("ide %v", ide.dev.Tag)
}

/// Probe attaches every IDE controller among devs and publishes their
/// drives in reg under "ata" or "atapi". The caller owns the returned
/// controllers.
func Probe(devs []*pci.Pcidev_t, env *Env_t, reg *bdev.Registry_t) []*Ide_t {
	var ret []*Ide_t
	for _, d := range pci.Match(devs, pci.CLASS_STORAGE, pci.SUBCLASS_IDE) {
		ide, err := Attach(d, env)
		if err != nil {
			plog.Warningf("%v", err)
			continue
		}
		for _, dr := range ide.drives {
			e := reg.Register(dr.id.Type.String(), dr)
			plog.Infof("%v: %v", e.Name, &dr.id)
		}
		ret = append(ret, ide)
	}
	return ret
}
