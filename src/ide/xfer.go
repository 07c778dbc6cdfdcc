package ide

import "fmt"

import "github.com/pkg/errors"

import "atadrv/src/util"

/// Op_t is the direction of a transfer.
type Op_t int

const (
	OP_READ Op_t = iota
	OP_WRITE
)

func (op Op_t) String() string {
	if op == OP_WRITE {
		return "write"
	}
	return "read"
}

/// Precondition failures of Transfer. Device failures are not errors; they
/// show up as short transfers.
var (
	ErrOutOfRange  = errors.New("sector range out of bounds")
	ErrReadOnly    = errors.New("device is read-only")
	ErrShortBuffer = errors.New("buffer shorter than transfer")
	ErrBadMode     = errors.New("unsupported addressing mode")
)

/// Rangeerr_t describes a rejected sector range.
type Rangeerr_t struct {
	Slot  Slot_t
	Mode  string
	Start uint64
	N     int
	Limit uint64
}

func (e *Rangeerr_t) Error() string {
	return fmt.Sprintf("%v: %v sectors at %v exceed %v limit %v",
		e.Slot, e.N, e.Start, e.Mode, e.Limit)
}

func (e *Rangeerr_t) Unwrap() error { return ErrOutOfRange }
func (e *Rangeerr_t) Cause() error  { return ErrOutOfRange }

// true if [start, start+n) does not fit below lim
func beyond(start uint64, n int, lim uint64) bool {
	return start > lim || uint64(n) > lim-start
}

func (id *Ident_t) check(op Op_t, buf []uint8, start uint64, n int) error {
	if n < 0 {
		return errors.Wrapf(ErrShortBuffer, "negative count %v", n)
	}
	if id.Type == DT_ATAPI && op == OP_WRITE {
		return errors.Wrapf(ErrReadOnly, "%v", id.Slot)
	}
	if need := uint64(n) * uint64(id.Sectsz); uint64(len(buf)) < need {
		return errors.Wrapf(ErrShortBuffer, "%v bytes for %v", len(buf), need)
	}
	if n == 0 {
		return nil
	}
	rerr := func(mode string, lim uint64) error {
		return &Rangeerr_t{id.Slot, mode, start, n, lim}
	}
	if id.Type == DT_ATAPI {
		if lim := id.Nsectors(); beyond(start, n, lim) {
			return rerr("atapi", lim)
		}
		return nil
	}
	switch id.Mode {
	case AM_CHS:
		// the last sector touched must lie on an existing cylinder
		last := start + uint64(n) - 1
		cyl, _, _ := Lba2chs(last, id.Heads, id.Spt)
		if last < start || cyl >= uint64(id.Cyls) {
			return rerr("chs", id.Nsectors())
		}
	case AM_LBA28:
		if beyond(start, n, uint64(id.Max28)) {
			return rerr("lba28", uint64(id.Max28))
		}
	case AM_LBA48:
		if beyond(start, n, id.Max48) {
			return rerr("lba48", id.Max48)
		}
	default:
		return errors.Wrapf(ErrBadMode, "%v", id.Mode)
	}
	return nil
}

func pioop(m Addrmode_t, op Op_t) uint8 {
	ext := m == AM_LBA48
	switch {
	case op == OP_READ && ext:
		return ATA_CMD_READ_PIO_EXT
	case op == OP_READ:
		return ATA_CMD_READ_PIO
	case ext:
		return ATA_CMD_WRITE_PIO_EXT
	}
	return ATA_CMD_WRITE_PIO
}

func dmaop(m Addrmode_t, op Op_t) uint8 {
	ext := m == AM_LBA48
	switch {
	case op == OP_READ && ext:
		return ATA_CMD_READ_DMA_EXT
	case op == OP_READ:
		return ATA_CMD_READ_DMA
	case ext:
		return ATA_CMD_WRITE_DMA_EXT
	}
	return ATA_CMD_WRITE_DMA
}

// writes the drive select, sector count and address registers for n
// sectors at lba
func (ide *Ide_t) program(id *Ident_t, lba uint64, n int) {
	ch := &ide.chans[id.Slot.Chan]
	r := &ch.regs
	sel := id.Slot.sel()
	switch id.Mode {
	case AM_CHS:
		cyl, head, sect := Lba2chs(lba, id.Heads, id.Spt)
		r.wr(ATA_REG_HDDEVSEL, ATA_SEL_CHS|sel|uint8(head&0xf))
		r.delay400()
		r.wr(ATA_REG_SECCOUNT, uint8(n))
		r.wr(ATA_REG_LBA0, uint8(sect))
		r.wr(ATA_REG_LBA1, uint8(cyl))
		r.wr(ATA_REG_LBA2, uint8(cyl>>8))
	case AM_LBA28:
		r.wr(ATA_REG_HDDEVSEL, ATA_SEL_LBA|sel|uint8(lba>>24)&0xf)
		r.delay400()
		r.wr(ATA_REG_SECCOUNT, uint8(n))
		r.wr(ATA_REG_LBA0, uint8(lba))
		r.wr(ATA_REG_LBA1, uint8(lba>>8))
		r.wr(ATA_REG_LBA2, uint8(lba>>16))
	case AM_LBA48:
		r.wr(ATA_REG_HDDEVSEL, ATA_SEL_LBA|sel)
		r.delay400()
		// the drive keeps the previous value of each register, so the
		// high halves go first
		r.wr(ATA_REG_SECCOUNT, uint8(n>>8))
		r.wr(ATA_REG_LBA0, uint8(lba>>24))
		r.wr(ATA_REG_LBA1, uint8(lba>>32))
		r.wr(ATA_REG_LBA2, uint8(lba>>40))
		r.wr(ATA_REG_SECCOUNT, uint8(n))
		r.wr(ATA_REG_LBA0, uint8(lba))
		r.wr(ATA_REG_LBA1, uint8(lba>>8))
		r.wr(ATA_REG_LBA2, uint8(lba>>16))
	default:
		panic("bad mode")
	}
	ch.lastsel = id.Slot.Drive
}

type engine_t func(*Ident_t, Op_t, []uint8, uint64, int) int

func (ide *Ide_t) usedma(id *Ident_t) bool {
	return ide.dma && ide.lim.Dma && id.Type == DT_ATA && id.Dmacapable()
}

// picks the engine for id and the most sectors one of its chunks may carry
func (ide *Ide_t) engine(id *Ident_t) (engine_t, int) {
	switch {
	case id.Type == DT_ATAPI:
		return ide.atapiread, id.Maxchunk()
	case ide.usedma(id):
		return ide.dmaxfer, util.Min(id.Maxchunk(), ide.dmamax(id))
	}
	return ide.pio, id.Maxchunk()
}

/// Transfer moves n sectors between buf and the drive described by id,
/// starting at sector start. Requests are split into chunks no larger
/// than one command can carry and issued in ascending order; the first
/// short chunk ends the transfer. It returns the number of sectors moved.
/// An error is returned only for requests that are invalid for the drive,
/// in which case no register has been touched.
func (ide *Ide_t) Transfer(id *Ident_t, op Op_t, buf []uint8, start uint64,
	n int) (int, error) {
	if err := id.check(op, buf, start, n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	eng, max := ide.engine(id)

	ide.Lock()
	defer ide.Unlock()

	ch := &ide.chans[id.Slot.Chan]
	if ch.lastsel != id.Slot.Drive {
		ide.selectdrive(id.Slot)
	}
	if ch.nien {
		ch.regs.control(0)
		ch.nien = false
		defer func() {
			ch.regs.control(ATA_CTL_NIEN)
			ch.nien = true
		}()
	}
	ch.pending.Store(false)

	ss := int(id.Sectsz)
	done := 0
	for done < n {
		c := util.Min(n-done, max)
		got := eng(id, op, buf[done*ss:(done+c)*ss], start+uint64(done), c)
		ide.Stat.Nchunk.Inc()
		done += got
		if got < c {
			ide.Stat.Nshort.Inc()
			plog.Debugf("%v: short %v at %v: %v of %v", id.Slot, op,
				start+uint64(done), got, c)
			break
		}
	}
	if op == OP_READ {
		ide.Stat.Nread.Inc()
		ide.Stat.Nsectr.Addn(done)
	} else {
		ide.Stat.Nwrite.Inc()
		ide.Stat.Nsectw.Addn(done)
	}
	return done, nil
}
