package idesim

import "encoding/binary"

import "atadrv/src/hashtable"

const (
	st_bsy  uint8 = 0x80
	st_drdy uint8 = 0x40
	st_dsc  uint8 = 0x10
	st_drq  uint8 = 0x08
	st_err  uint8 = 0x01

	er_abrt uint8 = 0x04
	er_idnf uint8 = 0x10
	er_unc  uint8 = 0x40
)

// an ATA command in progress
type xfer_t struct {
	cmd   uint8
	write bool
	dma   bool
	lba   uint64
	left  int
	limit int
}

type simdrive_t struct {
	slot  string
	cfg   Drivecfg_t
	atapi bool
	ss    int
	nsect uint64
	// task file; index 1 holds the value written before the current one
	feat  [2]uint8
	count [2]uint8
	lba0  [2]uint8
	lba1  [2]uint8
	lba2  [2]uint8
	dev   uint8
	// status and error
	status uint8
	err    uint8
	// data phase: buf is moved through the data register, next runs once
	// it has been drained or filled
	buf   []uint8
	pos   int
	out   bool
	next  func([]uint8)
	xf    *xfer_t
	// sectors written since power on
	store *hashtable.Hashtable_t[uint64, []uint8]
	bad   map[uint64]bool
	// DMA interrupts still to deliver with the bus master active
	dmaactive int
}

func mkdrive(slot string, dc Drivecfg_t) *simdrive_t {
	d := &simdrive_t{slot: slot, cfg: dc}
	d.atapi = dc.Type == "atapi"
	if d.atapi {
		d.ss = int(dc.Blksize)
		d.nsect = uint64(dc.Blocks)
	} else {
		d.ss = int(dc.Sectsz)
		d.nsect = dc.Nsectors()
	}
	d.store = hashtable.MkHash[uint64, []uint8](64, hashtable.U64hash)
	d.bad = make(map[uint64]bool)
	for _, b := range dc.Fault.Bad {
		d.bad[b] = true
	}
	d.reset()
	return d
}

/// Fill writes the initial contents of sector lba into b: the sector
/// number in the first eight bytes, then a pattern derived from it.
func Fill(lba uint64, b []uint8) {
	for i := range b {
		b[i] = uint8(i) ^ uint8(lba*37)
	}
	if len(b) >= 8 {
		binary.LittleEndian.PutUint64(b, lba)
	}
}

func (d *simdrive_t) sector(lba uint64) []uint8 {
	if s, ok := d.store.Get(lba); ok {
		return s
	}
	s := make([]uint8, d.ss)
	Fill(lba, s)
	return s
}

// power on and soft reset leave the signature in the task file
func (d *simdrive_t) reset() {
	d.xf = nil
	d.buf = nil
	d.err = 0x01
	d.count[0] = 1
	d.lba0[0] = 1
	if d.atapi {
		d.lba1[0], d.lba2[0] = 0x14, 0xeb
	} else {
		d.lba1[0], d.lba2[0] = 0, 0
	}
	d.dev = 0
	d.status = st_drdy | st_dsc
	if d.cfg.Fault.Busy {
		d.status = st_bsy
	}
}

func (d *simdrive_t) rd(reg int) uint8 {
	switch reg {
	case 1:
		return d.err
	case 2:
		return d.count[0]
	case 3:
		return d.lba0[0]
	case 4:
		return d.lba1[0]
	case 5:
		return d.lba2[0]
	case 6:
		return d.dev
	case 7:
		return d.status
	}
	return 0
}

func (d *simdrive_t) wr(reg int, v uint8) {
	push := func(r *[2]uint8) {
		r[1] = r[0]
		r[0] = v
	}
	switch reg {
	case 1:
		push(&d.feat)
	case 2:
		push(&d.count)
	case 3:
		push(&d.lba0)
	case 4:
		push(&d.lba1)
	case 5:
		push(&d.lba2)
	case 6:
		d.dev = v
	}
}

func (d *simdrive_t) fail(e uint8) {
	d.err = e
	d.status = st_drdy | st_err
	d.xf = nil
	d.buf = nil
}

func (d *simdrive_t) idle() {
	d.status = st_drdy | st_dsc
	d.buf = nil
	d.xf = nil
}

// starts a data phase of len(b) bytes
func (d *simdrive_t) data(b []uint8, out bool, next func([]uint8)) {
	d.buf = b
	d.pos = 0
	d.out = out
	d.next = next
	d.status = st_drdy | st_drq
}

func (d *simdrive_t) rddata() uint16 {
	if d.buf == nil || d.out {
		return 0xffff
	}
	w := uint16(d.buf[d.pos])
	if d.pos+1 < len(d.buf) {
		w |= uint16(d.buf[d.pos+1]) << 8
	}
	d.pos += 2
	if d.pos >= len(d.buf) {
		b := d.buf
		d.buf = nil
		d.next(b)
	}
	return w
}

func (d *simdrive_t) wrdata(v uint16) {
	if d.buf == nil || !d.out {
		return
	}
	d.buf[d.pos] = uint8(v)
	if d.pos+1 < len(d.buf) {
		d.buf[d.pos+1] = uint8(v >> 8)
	}
	d.pos += 2
	if d.pos >= len(d.buf) {
		b := d.buf
		d.buf = nil
		d.next(b)
	}
}

// address and count of a read or write command
func (d *simdrive_t) addr(ext bool) (uint64, int, bool) {
	if ext {
		lba := uint64(d.lba0[0]) | uint64(d.lba1[0])<<8 |
			uint64(d.lba2[0])<<16 | uint64(d.lba0[1])<<24 |
			uint64(d.lba1[1])<<32 | uint64(d.lba2[1])<<40
		n := int(d.count[1])<<8 | int(d.count[0])
		if n == 0 {
			n = 0x10000
		}
		return lba, n, d.dev&0x40 != 0
	}
	n := int(d.count[0])
	if n == 0 {
		n = 0x100
	}
	if d.dev&0x40 != 0 {
		if !d.cfg.Lba {
			return 0, 0, false
		}
		lba := uint64(d.dev&0xf)<<24 | uint64(d.lba2[0])<<16 |
			uint64(d.lba1[0])<<8 | uint64(d.lba0[0])
		return lba, n, true
	}
	c := &d.cfg
	cyl := uint64(d.lba2[0])<<8 | uint64(d.lba1[0])
	head := uint64(d.dev & 0xf)
	sect := uint64(d.lba0[0])
	if sect == 0 || sect > uint64(c.Spt) || head >= uint64(c.Heads) ||
		cyl >= uint64(c.Cyls) {
		return 0, 0, false
	}
	return (cyl*uint64(c.Heads)+head)*uint64(c.Spt) + sect - 1, n, true
}

// runs a command and returns its log entry
func (d *simdrive_t) exec(cmd uint8) (Cmd_t, bool) {
	lc := Cmd_t{Slot: d.slot, Cmd: cmd}
	if d.status&st_bsy != 0 {
		return lc, false
	}
	d.err = 0
	d.xf = nil
	if d.cfg.Fault.Nodrq {
		d.status = st_drdy
		return lc, true
	}
	switch cmd {
	case 0xec:
		if d.atapi {
			d.fail(er_abrt)
			d.lba1[0], d.lba2[0] = 0x14, 0xeb
			break
		}
		d.data(d.identify(), false, func([]uint8) { d.idle() })
	case 0xa1:
		if !d.atapi {
			d.fail(er_abrt)
			break
		}
		d.data(d.identify(), false, func([]uint8) { d.idle() })
	case 0x20, 0x24, 0x30, 0x34, 0xc8, 0x25, 0xca, 0x35:
		ext := cmd == 0x24 || cmd == 0x34 || cmd == 0x25 || cmd == 0x35
		if d.atapi || (ext && !d.cfg.Lba48) {
			d.fail(er_abrt)
			break
		}
		lba, n, ok := d.addr(ext)
		lc.Lba, lc.Count = lba, n
		if !ok || lba+uint64(n) > d.nsect {
			d.fail(er_idnf)
			break
		}
		d.xf = &xfer_t{cmd: cmd, lba: lba, left: n}
		d.xf.write = cmd == 0x30 || cmd == 0x34 || cmd == 0xca || cmd == 0x35
		d.xf.dma = cmd == 0xc8 || cmd == 0x25 || cmd == 0xca || cmd == 0x35
		switch {
		case d.xf.dma:
			d.dmaactive = d.cfg.Fault.Dmaactive
			d.status = st_drdy | st_drq
		case d.xf.write:
			d.pioout()
		default:
			d.pioin()
		}
	case 0xe7, 0xea:
		d.idle()
	case 0xa0:
		if !d.atapi {
			d.fail(er_abrt)
			break
		}
		limit := int(d.lba2[0])<<8 | int(d.lba1[0])
		n := 12
		if d.cfg.Pkt16 {
			n = 16
		}
		d.data(make([]uint8, n), true, func(p []uint8) { d.packet(p, limit) })
	default:
		d.fail(er_abrt)
	}
	return lc, true
}

func (d *simdrive_t) pioin() {
	xf := d.xf
	if d.bad[xf.lba] {
		d.fail(er_unc)
		return
	}
	s := append([]uint8(nil), d.sector(xf.lba)...)
	d.data(s, false, func([]uint8) {
		xf.lba++
		xf.left--
		if xf.left == 0 {
			d.idle()
			return
		}
		d.pioin()
	})
}

func (d *simdrive_t) pioout() {
	xf := d.xf
	d.data(make([]uint8, d.ss), true, func(b []uint8) {
		if d.bad[xf.lba] {
			d.fail(er_unc)
			return
		}
		d.store.Set(xf.lba, b)
		xf.lba++
		xf.left--
		if xf.left == 0 {
			d.idle()
			return
		}
		d.pioout()
	})
}

// executes an ATAPI command packet
func (d *simdrive_t) packet(p []uint8, limit int) {
	if limit == 0 || limit == 0xffff {
		limit = 0xfffe
	}
	limit &^= 1
	switch p[0] {
	case 0x25:
		if d.nsect == 0 {
			d.fail(0x20)
			return
		}
		resp := make([]uint8, 8)
		binary.BigEndian.PutUint32(resp[0:], uint32(d.nsect-1))
		binary.BigEndian.PutUint32(resp[4:], uint32(d.ss))
		d.bursts(resp, limit)
	case 0xa8:
		lba := uint64(binary.BigEndian.Uint32(p[2:6]))
		n := uint64(binary.BigEndian.Uint32(p[6:10]))
		if d.nsect == 0 {
			d.fail(0x20)
			return
		}
		if lba+n > d.nsect {
			d.fail(0x50)
			return
		}
		var all []uint8
		for i := uint64(0); i < n; i++ {
			if d.bad[lba+i] {
				break
			}
			all = append(all, d.sector(lba+i)...)
		}
		if len(all) == 0 {
			d.fail(0x30)
			return
		}
		short := uint64(len(all)) < n*uint64(d.ss)
		d.burststhen(all, limit, func() {
			if short {
				d.fail(0x30)
			} else {
				d.idle()
			}
		})
	default:
		d.fail(0x50)
	}
}

func (d *simdrive_t) bursts(all []uint8, limit int) {
	d.burststhen(all, limit, d.idle)
}

// hands out all in DRQ bursts of at most limit bytes, reporting each
// burst's length in the byte count registers
func (d *simdrive_t) burststhen(all []uint8, limit int, done func()) {
	n := len(all)
	if n > limit {
		n = limit
	}
	d.lba1[0], d.lba2[0] = uint8(n), uint8(n>>8)
	d.data(all[:n], false, func([]uint8) {
		if n == len(all) {
			done()
			return
		}
		d.burststhen(all[n:], limit, done)
	})
}
