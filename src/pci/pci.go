package pci

import "fmt"

/// Configuration space offsets.
const (
	VENDORID = 0x00
	DEVICEID = 0x02
	COMMAND  = 0x04
	STATUS   = 0x06
	PROGIF   = 0x09
	SUBCLASS = 0x0a
	CLASS    = 0x0b
	HDRTYPE  = 0x0e
	BAR0     = 0x10
	BAR1     = 0x14
	BAR2     = 0x18
	BAR3     = 0x1c
	BAR4     = 0x20
	BAR5     = 0x24
	INTLINE  = 0x3c
)

/// Command register bits.
const (
	CMD_IO_EN     uint32 = 1 << 0
	CMD_MEM_EN    uint32 = 1 << 1
	CMD_BUSMASTER uint32 = 1 << 2
)

/// Class codes used by the storage drivers.
const (
	CLASS_STORAGE uint8 = 0x01
	SUBCLASS_IDE  uint8 = 0x01
)

/// Pcitag_t names a function by bus, device and function number.
type Pcitag_t uint32

/// Mktag builds a tag from its parts.
func Mktag(b, d, f int) Pcitag_t {
	if b < 0 || b > 255 || d < 0 || d > 31 || f < 0 || f > 7 {
		panic("bad pci address")
	}
	return Pcitag_t(b<<16 | d<<11 | f<<8)
}

/// Bdf splits the tag into bus, device and function.
func (t Pcitag_t) Bdf() (int, int, int) {
	return int(t>>16) & 0xff, int(t>>11) & 0x1f, int(t>>8) & 0x7
}

func (t Pcitag_t) String() string {
	b, d, f := t.Bdf()
	return fmt.Sprintf("%02x:%02x.%d", b, d, f)
}

/// Cfgspace_i reads and writes configuration space. size is 1, 2 or 4 and
/// off must be aligned to it.
type Cfgspace_i interface {
	Cfg_read(t Pcitag_t, off, size int) uint32
	Cfg_write(t Pcitag_t, off, size int, v uint32)
}

/// Lister_i is implemented by configuration spaces that know their
/// functions, which saves probing all 65536 tags.
type Lister_i interface {
	Tags() []Pcitag_t
}

/// Pcidev_t is one PCI function.
type Pcidev_t struct {
	Tag      Pcitag_t
	Cfg      Cfgspace_i
	Vid      uint16
	Did      uint16
	Class    uint8
	Subclass uint8
}

/// Pci_read reads size bytes of configuration space.
func (d *Pcidev_t) Pci_read(off, size int) uint32 {
	return d.Cfg.Cfg_read(d.Tag, off, size)
}

/// Pci_write writes size bytes of configuration space.
func (d *Pcidev_t) Pci_write(off, size int, v uint32) {
	d.Cfg.Cfg_write(d.Tag, off, size, v)
}

/// Progif returns the current programming interface byte. It is not cached
/// since drivers may rewrite it.
func (d *Pcidev_t) Progif() uint8 {
	return uint8(d.Pci_read(PROGIF, 1))
}

/// Bar returns the raw value of base address register n.
func (d *Pcidev_t) Bar(n int) uint32 {
	if n < 0 || n > 5 {
		panic("bad bar")
	}
	return d.Pci_read(BAR0+4*n, 4)
}

func (d *Pcidev_t) String() string {
	return fmt.Sprintf("%v %04x:%04x class %02x/%02x", d.Tag, d.Vid, d.Did,
		d.Class, d.Subclass)
}

func mkdev(cfg Cfgspace_i, t Pcitag_t) (*Pcidev_t, bool) {
	vid := uint16(cfg.Cfg_read(t, VENDORID, 2))
	if vid == 0xffff || vid == 0 {
		return nil, false
	}
	d := &Pcidev_t{Tag: t, Cfg: cfg, Vid: vid}
	d.Did = uint16(d.Pci_read(DEVICEID, 2))
	d.Class = uint8(d.Pci_read(CLASS, 1))
	d.Subclass = uint8(d.Pci_read(SUBCLASS, 1))
	return d, true
}

/// Scan enumerates all functions reachable through cfg.
func Scan(cfg Cfgspace_i) []*Pcidev_t {
	var ret []*Pcidev_t
	if l, ok := cfg.(Lister_i); ok {
		for _, t := range l.Tags() {
			if d, ok := mkdev(cfg, t); ok {
				ret = append(ret, d)
			}
		}
		return ret
	}
	for b := 0; b < 256; b++ {
		for dv := 0; dv < 32; dv++ {
			d, ok := mkdev(cfg, Mktag(b, dv, 0))
			if !ok {
				continue
			}
			ret = append(ret, d)
			// multi-function header
			if d.Pci_read(HDRTYPE, 1)&0x80 == 0 {
				continue
			}
			for f := 1; f < 8; f++ {
				if d, ok := mkdev(cfg, Mktag(b, dv, f)); ok {
					ret = append(ret, d)
				}
			}
		}
	}
	return ret
}

/// Match returns the functions with the given class and subclass.
func Match(devs []*Pcidev_t, class, subclass uint8) []*Pcidev_t {
	var ret []*Pcidev_t
	for _, d := range devs {
		if d.Class == class && d.Subclass == subclass {
			ret = append(ret, d)
		}
	}
	return ret
}
