package ide

import "fmt"
import "strings"

import "golang.org/x/text/encoding/charmap"

/// Slot_t names a drive position: channel 0 or 1, drive 0 (master) or 1
/// (slave).
type Slot_t struct {
	Chan  int
	Drive int
}

func (s Slot_t) String() string {
	return fmt.Sprintf("%d:%d", s.Chan, s.Drive)
}

// drive bit of the drive/head register
func (s Slot_t) sel() uint8 {
	return uint8(s.Drive) << 4
}

/// Drivetype_t is the result of reset and detection.
type Drivetype_t int

const (
	DT_NONE Drivetype_t = iota /// no drive or an unrecognised one
	DT_ATA
	DT_ATAPI
)

func (t Drivetype_t) String() string {
	switch t {
	case DT_NONE:
		return "none"
	case DT_ATA:
		return "ata"
	case DT_ATAPI:
		return "atapi"
	}
	return fmt.Sprintf("type%d", int(t))
}

/// Addrmode_t selects how sector numbers are programmed into the task file.
type Addrmode_t int

const (
	AM_CHS Addrmode_t = iota
	AM_LBA28
	AM_LBA48
)

func (m Addrmode_t) String() string {
	switch m {
	case AM_CHS:
		return "chs"
	case AM_LBA28:
		return "lba28"
	case AM_LBA48:
		return "lba48"
	}
	return fmt.Sprintf("mode%d", int(m))
}

/// Atapi_t holds what is only known about packet devices.
type Atapi_t struct {
	Subtype uint8
	Pktlen  int
	Maxlba  uint32
	Blksize uint32
}

/// Capacity returns the size of the medium in bytes.
func (a *Atapi_t) Capacity() uint64 {
	return (uint64(a.Maxlba) + 1) * uint64(a.Blksize)
}

/// Ident_t is what a drive reported about itself. It is not modified after
/// identification.
type Ident_t struct {
	Slot     Slot_t
	Type     Drivetype_t
	Config   uint16
	Cyls     uint32
	Heads    uint32
	Spt      uint32
	Caps     uint16
	Mwdma    uint16
	Udma     uint16
	Max28    uint32
	Max48    uint64
	Mode     Addrmode_t
	Sectsz   uint32
	Major    uint16
	Minor    uint16
	Cmdsets  [6]uint16
	Model    string
	Serial   string
	Firmware string
	// nil for ATA drives
	Atapi *Atapi_t
}

/// Nsectors returns the number of addressable sectors.
func (id *Ident_t) Nsectors() uint64 {
	if id.Atapi != nil {
		return id.Atapi.Capacity() / uint64(id.Sectsz)
	}
	switch id.Mode {
	case AM_CHS:
		return uint64(id.Cyls) * uint64(id.Heads) * uint64(id.Spt)
	case AM_LBA28:
		return uint64(id.Max28)
	case AM_LBA48:
		return id.Max48
	}
	panic("bad mode")
}

/// Dmacapable reports whether the drive supports any multiword or ultra
/// DMA mode.
func (id *Ident_t) Dmacapable() bool {
	return id.Mwdma&0x7 != 0 || id.Udma&0x7f != 0
}

/// Maxchunk returns the most sectors one command may move.
func (id *Ident_t) Maxchunk() int {
	if id.Type == DT_ATA && id.Mode == AM_LBA48 {
		return 0xffff
	}
	return 0xff
}

func (id *Ident_t) String() string {
	s := fmt.Sprintf("%v %v %q sn %q fw %q", id.Slot, id.Type, id.Model,
		id.Serial, id.Firmware)
	if id.Atapi != nil {
		return s + fmt.Sprintf(" %v x %v", id.Atapi.Maxlba+1,
			id.Atapi.Blksize)
	}
	return s + fmt.Sprintf(" %v %v x %v", id.Mode, id.Nsectors(), id.Sectsz)
}

// identify strings hold two characters per word, the first in the high
// byte
func identstr(w []uint16) string {
	b := make([]uint8, 0, 2*len(w))
	for _, c := range w {
		b = append(b, uint8(c>>8), uint8(c))
	}
	u, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// latin-1 maps every byte
		panic(err)
	}
	return strings.TrimRight(string(u), " \x00")
}

func parseident(s Slot_t, t Drivetype_t, w *[256]uint16) *Ident_t {
	id := &Ident_t{Slot: s, Type: t}
	id.Config = w[IDENT_DEVICETYPE]
	id.Cyls = uint32(w[IDENT_CYLINDERS])
	id.Heads = uint32(w[IDENT_HEADS])
	id.Spt = uint32(w[IDENT_SECTORS])
	id.Serial = identstr(w[IDENT_SERIAL : IDENT_SERIAL+10])
	id.Firmware = identstr(w[IDENT_FIRMWARE : IDENT_FIRMWARE+4])
	id.Model = identstr(w[IDENT_MODEL : IDENT_MODEL+20])
	id.Caps = w[IDENT_CAPABILITIES]
	id.Max28 = uint32(w[IDENT_MAX_LBA]) | uint32(w[IDENT_MAX_LBA+1])<<16
	id.Mwdma = w[IDENT_MWDMA]
	id.Major = w[IDENT_MAJOR]
	id.Minor = w[IDENT_MINOR]
	copy(id.Cmdsets[:], w[IDENT_COMMANDSETS:IDENT_COMMANDSETS+6])
	id.Udma = w[IDENT_UDMA]
	for i := 3; i >= 0; i-- {
		id.Max48 = id.Max48<<16 | uint64(w[IDENT_MAX_LBA_EXT+i])
	}
	id.Max48 &= 1<<48 - 1

	switch {
	case id.Cmdsets[1]&IDENT_CMD2_LBA48 != 0:
		id.Mode = AM_LBA48
	case id.Caps&IDENT_CAP_LBA != 0:
		id.Mode = AM_LBA28
	default:
		id.Mode = AM_CHS
	}

	if t == DT_ATAPI {
		a := &Atapi_t{}
		a.Subtype = uint8(id.Config>>8) & 0x1f
		if id.Config&0x3 == 1 {
			a.Pktlen = 16
		} else {
			a.Pktlen = 12
		}
		id.Atapi = a
		id.Sectsz = ATAPI_SECTSZ
	}
	return id
}
